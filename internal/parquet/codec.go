package parquet

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/memory"
	pq "github.com/apache/arrow/go/v10/parquet"
	"github.com/apache/arrow/go/v10/parquet/compress"
	"github.com/apache/arrow/go/v10/parquet/file"
	"github.com/apache/arrow/go/v10/parquet/pqarrow"

	"github.com/searchos/dataview/internal/domain/table"
)

const writeChunkSize = 4096

// writeParquet encodes the table with snappy compression. The group-key
// column is stored as float64 (empty cells become nulls); every other
// column is stored as strings, matching the files already on disk.
func writeParquet(f *os.File, t *table.Table, groupKey string) error {
	mem := memory.NewGoAllocator()

	fields := make([]arrow.Field, len(t.Columns))
	builders := make([]array.Builder, len(t.Columns))
	for i, col := range t.Columns {
		if col == groupKey {
			fields[i] = arrow.Field{Name: col, Type: arrow.PrimitiveTypes.Float64, Nullable: true}
			builders[i] = array.NewFloat64Builder(mem)
		} else {
			fields[i] = arrow.Field{Name: col, Type: arrow.BinaryTypes.String, Nullable: true}
			builders[i] = array.NewStringBuilder(mem)
		}
	}
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			v := row.Get(col)
			switch b := builders[i].(type) {
			case *array.Float64Builder:
				fv, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
				if err != nil {
					b.AppendNull()
				} else {
					b.Append(fv)
				}
			case *array.StringBuilder:
				b.Append(v)
			}
		}
	}

	cols := make([]arrow.Array, len(builders))
	for i, b := range builders {
		cols[i] = b.NewArray()
		b.Release()
	}
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()

	arrowSchema := arrow.NewSchema(fields, nil)
	rec := array.NewRecord(arrowSchema, cols, int64(t.NumRows()))
	defer rec.Release()
	tbl := array.NewTableFromRecords(arrowSchema, []arrow.Record{rec})
	defer tbl.Release()

	props := pq.NewWriterProperties(
		pq.WithCompression(compress.Codecs.Snappy),
		pq.WithDictionaryDefault(false),
	)
	return pqarrow.WriteTable(tbl, f, writeChunkSize, props, pqarrow.DefaultWriterProps())
}

// readParquet decodes a parquet file into a table. Numeric columns are
// rendered back to strings with integral floats losing their trailing ".0",
// so a round trip of the group-key column is stable.
func readParquet(ctx context.Context, path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f)
	if err != nil {
		return nil, err
	}
	defer pf.Close()

	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, err
	}
	at, err := reader.ReadTable(ctx)
	if err != nil {
		return nil, err
	}
	defer at.Release()

	fields := at.Schema().Fields()
	names := make([]string, len(fields))
	for i, fld := range fields {
		names[i] = fld.Name
	}
	out := table.New(names...)
	out.Rows = make([]table.Row, at.NumRows())
	for i := range out.Rows {
		out.Rows[i] = make(table.Row, len(names))
	}

	for j := 0; j < int(at.NumCols()); j++ {
		row := 0
		for _, chunk := range at.Column(j).Data().Chunks() {
			for i := 0; i < chunk.Len(); i++ {
				if chunk.IsNull(i) {
					row++
					continue
				}
				v, err := cellString(chunk, i)
				if err != nil {
					return nil, err
				}
				if v != "" {
					out.Rows[row][names[j]] = v
				}
				row++
			}
		}
	}
	return out, nil
}

func cellString(chunk arrow.Array, i int) (string, error) {
	switch arr := chunk.(type) {
	case *array.String:
		return arr.Value(i), nil
	case *array.LargeString:
		return arr.Value(i), nil
	case *array.Float64:
		return strconv.FormatFloat(arr.Value(i), 'f', -1, 64), nil
	case *array.Float32:
		return strconv.FormatFloat(float64(arr.Value(i)), 'f', -1, 32), nil
	case *array.Int64:
		return strconv.FormatInt(arr.Value(i), 10), nil
	case *array.Int32:
		return strconv.FormatInt(int64(arr.Value(i)), 10), nil
	case *array.Boolean:
		return strconv.FormatBool(arr.Value(i)), nil
	default:
		return "", fmt.Errorf("unsupported column type %s", chunk.DataType())
	}
}

// readNDJSON decodes a newline-delimited JSON file, one object per line.
// Columns are sorted since JSON objects carry no column order.
func readNDJSON(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := table.New()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var raw map[string]any
		if err := json.Unmarshal(line, &raw); err != nil {
			return nil, err
		}
		row := make(table.Row, len(raw))
		for k, v := range raw {
			row[k] = jsonCellString(v)
		}
		out.Append(row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if out.NumRows() == 0 {
		return nil, fmt.Errorf("no rows decoded")
	}
	sort.Strings(out.Columns)
	return out, nil
}

func jsonCellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
