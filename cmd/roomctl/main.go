package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

// roomctl dumps the room registry slots of a running (or stopped) server
// database as a table. It opens Badger read-only with the lock guard
// bypassed, so it can inspect a database the server currently holds.
func main() {
	dbPath := flag.String("db", "/tmp/call-lab", "Path to badger DB")
	prefix := flag.String("prefix", "video_room_", "Prefix to scan")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Slot", "Room", "Entries", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()

			err := item.Value(func(v []byte) error {
				table.Append(slotRow(string(item.Key()), v))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

// slotRow renders one registry key. The owner slot holds a raw connection
// id; the map slots hold JSON keyed by connection id.
func slotRow(key string, val []byte) []string {
	slot := "raw"
	room := "-"
	entries := "-"
	detail := fmt.Sprintf("%d bytes", len(val))

	if rest, ok := strings.CutPrefix(key, "video_room_"); ok {
		if s, r, ok := strings.Cut(rest, "_"); ok {
			slot, room = s, r
		}
	}

	switch slot {
	case "owner":
		entries = "1"
		detail = string(val)
	case "participants", "pending", "permissions":
		members := make(map[string]json.RawMessage)
		if err := json.Unmarshal(val, &members); err == nil {
			entries = fmt.Sprintf("%d", len(members))
			ids := make([]string, 0, len(members))
			for id := range members {
				ids = append(ids, shortID(id))
			}
			sort.Strings(ids)
			detail = strings.Join(ids, " ")
		}
	}

	return []string{key, slot, room, entries, detail}
}

// shortID keeps the first 8 characters of a connection id for readability.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	return badger.Open(opts)
}
