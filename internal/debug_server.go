package internal

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

//go:embed inspect.html
var templatesFS embed.FS

type InspectRow struct {
	Key     string
	Slot    string
	Room    string
	Entries string
	Detail  string
}

type RowMapper func(key string, val []byte) InspectRow
type StatsProvider func() map[string]any

type PageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

// StartDebugServer exposes a read-only HTML view of the room registry
// slots. It scans whatever prefix the query asks for, so it also works
// against a database another tool is writing to.
func StartDebugServer(db *badger.DB, port int, endpoint string, mapper RowMapper, statsProvider StatsProvider) {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	if mapper == nil {
		mapper = RoomSlotMapper
	}

	mux.HandleFunc(endpoint, func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "video_room_"
		}

		data := PageData{
			Prefix: prefix,
			Stats:  make(map[string]any),
		}

		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				_ = item.Value(func(val []byte) error {
					data.Items = append(data.Items, mapper(string(item.Key()), val))
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})

	go func() {
		_ = http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", port), mux)
	}()
}

// RoomSlotMapper decodes the registry key layout: video_room_<slot>_<room>.
// Map-valued slots report their entry count, the owner slot shows the
// owning connection id.
func RoomSlotMapper(key string, val []byte) InspectRow {
	row := InspectRow{
		Key:     key,
		Slot:    "raw",
		Room:    "-",
		Entries: "-",
		Detail:  "Size: " + strconv.Itoa(len(val)) + " bytes",
	}

	rest, ok := strings.CutPrefix(key, "video_room_")
	if !ok {
		return row
	}
	slot, room, ok := strings.Cut(rest, "_")
	if !ok {
		return row
	}
	row.Slot = slot
	row.Room = room

	switch slot {
	case "owner":
		row.Entries = "1"
		row.Detail = string(val)
	case "participants", "pending", "permissions":
		entries := make(map[string]json.RawMessage)
		if err := json.Unmarshal(val, &entries); err == nil {
			row.Entries = strconv.Itoa(len(entries))
			row.Detail = string(val)
		}
	}
	return row
}
