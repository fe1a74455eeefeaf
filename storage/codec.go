package storage

import (
	"fmt"
	"time"

	"github.com/aether-insight/aether-go/analysis/dataset"
)

// storedColumn is the columnar JSON form of a dataset column. Missing cells
// serialize as nulls so the mask survives a round trip.
type storedColumn struct {
	Name    string       `json:"name"`
	Kind    string       `json:"kind"`
	Floats  []*float64   `json:"floats,omitempty"`
	Strings []*string    `json:"strings,omitempty"`
	Bools   []*bool      `json:"bools,omitempty"`
	Times   []*time.Time `json:"times,omitempty"`
}

type storedDataset struct {
	Columns []storedColumn `json:"columns"`
}

func encodeDataset(ds *dataset.Dataset) storedDataset {
	out := storedDataset{}
	for _, name := range ds.ColumnNames() {
		col := ds.Column(name)
		sc := storedColumn{Name: col.Name, Kind: col.Kind.String()}
		switch col.Kind {
		case dataset.KindNumeric:
			sc.Floats = make([]*float64, col.Len())
			for i := range sc.Floats {
				if !col.Missing[i] {
					sc.Floats[i] = dataset.FinitePtr(col.Floats[i])
				}
			}
		case dataset.KindText:
			sc.Strings = make([]*string, col.Len())
			for i := range sc.Strings {
				if !col.Missing[i] {
					v := col.Strings[i]
					sc.Strings[i] = &v
				}
			}
		case dataset.KindBool:
			sc.Bools = make([]*bool, col.Len())
			for i := range sc.Bools {
				if !col.Missing[i] {
					v := col.Bools[i]
					sc.Bools[i] = &v
				}
			}
		case dataset.KindTemporal:
			sc.Times = make([]*time.Time, col.Len())
			for i := range sc.Times {
				if !col.Missing[i] {
					v := col.Times[i]
					sc.Times[i] = &v
				}
			}
		}
		out.Columns = append(out.Columns, sc)
	}
	return out
}

func decodeDataset(sd storedDataset) (*dataset.Dataset, error) {
	columns := make([]dataset.Column, 0, len(sd.Columns))
	for _, sc := range sd.Columns {
		col := dataset.Column{Name: sc.Name}
		switch sc.Kind {
		case "numeric":
			col.Kind = dataset.KindNumeric
			col.Floats = make([]float64, len(sc.Floats))
			col.Missing = make([]bool, len(sc.Floats))
			for i, v := range sc.Floats {
				if v == nil {
					col.Missing[i] = true
					continue
				}
				col.Floats[i] = *v
			}
		case "text":
			col.Kind = dataset.KindText
			col.Strings = make([]string, len(sc.Strings))
			col.Missing = make([]bool, len(sc.Strings))
			for i, v := range sc.Strings {
				if v == nil {
					col.Missing[i] = true
					continue
				}
				col.Strings[i] = *v
			}
		case "boolean":
			col.Kind = dataset.KindBool
			col.Bools = make([]bool, len(sc.Bools))
			col.Missing = make([]bool, len(sc.Bools))
			for i, v := range sc.Bools {
				if v == nil {
					col.Missing[i] = true
					continue
				}
				col.Bools[i] = *v
			}
		case "temporal":
			col.Kind = dataset.KindTemporal
			col.Times = make([]time.Time, len(sc.Times))
			col.Missing = make([]bool, len(sc.Times))
			for i, v := range sc.Times {
				if v == nil {
					col.Missing[i] = true
					continue
				}
				col.Times[i] = *v
			}
		default:
			return nil, fmt.Errorf("unknown column kind %q for column %q", sc.Kind, sc.Name)
		}
		columns = append(columns, col)
	}
	return dataset.New(columns...)
}
