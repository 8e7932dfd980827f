package postgres

import (
	"reflect"
	"slices"
	"sync"
)

// ExtractDBColumns lists the "db" tags of T in field order, descending into
// embedded structs (entity.TenantEntity, entity.Document). Fields tagged "-"
// are skipped.
//
//	cols := ExtractDBColumns[inventory.Item]()
//	// ["id", "tenant_id", "created_at", "updated_at", "name", "code", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	return slices.Clone(fieldsOf(reflect.TypeOf(zero)).columns)
}

type column struct {
	index []int
	name  string
}

type typeColumns struct {
	columns []string
	fields  []column
}

var typeCache sync.Map // map[reflect.Type]*typeColumns

func fieldsOf(t reflect.Type) *typeColumns {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeColumns)
	}

	tc := &typeColumns{}
	if t.Kind() == reflect.Struct {
		collect(t, nil, tc)
	}
	typeCache.Store(t, tc)
	return tc
}

func collect(t reflect.Type, prefix []int, tc *typeColumns) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int(nil), prefix...), i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			collect(f.Type, index, tc)
			continue
		}
		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		tc.columns = append(tc.columns, tag)
		tc.fields = append(tc.fields, column{index: index, name: tag})
	}
}

// StructToMap converts a struct to a column -> value map using "db" tags.
func StructToMap(v any) map[string]any {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return nil
	}
	tc := fieldsOf(rv.Type())
	res := make(map[string]any, len(tc.fields))
	for _, f := range tc.fields {
		res[f.name] = rv.FieldByIndex(f.index).Interface()
	}
	return res
}

// StructValues returns the values of cols from v, in cols order. Used to feed
// COPY rows. Unknown columns yield nil.
func StructValues(v any, cols []string) []any {
	m := StructToMap(v)
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = m[c]
	}
	return out
}
