// Command badger_inspect dumps the archive store for debugging. It
// lists archived conversations or query tickets depending on the
// prefix.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"chat-desk/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "/tmp/chat-desk/badger", "Path to badger DB")
	prefix := flag.String("prefix", "conv:", "Prefix to scan (conv: or query:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Kind", "Ended/Updated", "Who", "Domain", "Detail"})
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
			key := string(item.Key())

			err := item.Value(func(v []byte) error {
				row, ok := renderRow(key, v)
				if !ok {
					// Log the bad record and keep scanning
					fmt.Printf("Error unmarshaling key %s\n", key)
					return nil
				}
				table.Append(row)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Error while scanning: ", err)
	}

	table.Render()
}

func renderRow(key string, value []byte) ([]string, bool) {
	displayKey := key
	if len(displayKey) > 40 {
		displayKey = displayKey[:40] + "..."
	}

	if strings.HasPrefix(key, "query:") {
		var q domain.Query
		if err := json.Unmarshal(value, &q); err != nil {
			return nil, false
		}
		return []string{
			displayKey, "QUERY", q.UpdatedAt.Format("2006-01-02 15:04:05"),
			q.UserName, q.Domain,
			fmt.Sprintf("[%s] %s", q.Status, q.Message),
		}, true
	}

	var c domain.ArchivedConversation
	if err := json.Unmarshal(value, &c); err != nil {
		return nil, false
	}
	lastText := ""
	if n := len(c.Messages); n > 0 {
		lastText = c.Messages[n-1].Text
	}
	return []string{
		displayKey, "CHAT", c.EndedAt.Format("2006-01-02 15:04:05"),
		c.UserName, c.Domain,
		fmt.Sprintf("%d messages, last: %s", len(c.Messages), lastText),
	}, true
}

func openDB(path string) (*badger.DB, error) {
	options := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLoggingLevel(badger.ERROR)
	return badger.Open(options)
}
