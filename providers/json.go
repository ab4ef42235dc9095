package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/kaptinlin/jsonrepair"
)

// ReadJSON liest ein JSON-Array von Objekten. Kleinere Syntaxfehler (z.B. nachgestellte
// Kommas) werden vorher repariert. Zahlen und Booleans werden als Text übernommen,
// null-Werte fehlen in der Zeile.
func ReadJSON(ctx context.Context, path string, required ...string) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	repaired, err := jsonrepair.JSONRepair(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: repair json: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(repaired)))
	dec.UseNumber()
	var objects []map[string]any
	if err := dec.Decode(&objects); err != nil {
		return nil, fmt.Errorf("%s: decode json: %w", path, err)
	}

	rows := make([]Row, 0, len(objects))
	seen := map[string]struct{}{}
	for i, obj := range objects {
		row := make(Row, len(obj))
		for k, v := range obj {
			seen[k] = struct{}{}
			switch val := v.(type) {
			case nil:
			case string:
				row[k] = val
			case json.Number:
				row[k] = val.String()
			case bool:
				row[k] = strconv.FormatBool(val)
			default:
				return nil, fmt.Errorf("%s: object #%d: field %q is not a scalar", path, i, k)
			}
		}
		rows = append(rows, row)
	}

	if len(objects) > 0 {
		header := make([]string, 0, len(seen))
		for k := range seen {
			header = append(header, k)
		}
		if err := requireColumns(path, header, required); err != nil {
			return nil, err
		}
	}
	return rows, nil
}
