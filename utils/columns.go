package utils

import (
	"fmt"
	"reflect"
)

// ColumnList returns the list of "db"-tagged column names of a dbmodel
// struct, in declaration order, for use in select builders. Embedded structs
// are flattened the way pgx.RowToStructByName scans them.
func ColumnList[T any](prefixes ...string) []string {
	var value T
	t := reflect.TypeOf(value)
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("ColumnList requires a struct type, got %s", t.Kind()))
	}

	prefix := ""
	if len(prefixes) > 0 {
		prefix = prefixes[0] + "."
	}

	var columns []string
	var walk func(t reflect.Type)
	walk = func(t reflect.Type) {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.Anonymous && field.Type.Kind() == reflect.Struct {
				walk(field.Type)
				continue
			}
			tag := field.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			columns = append(columns, prefix+tag)
		}
	}
	walk(t)
	return columns
}
