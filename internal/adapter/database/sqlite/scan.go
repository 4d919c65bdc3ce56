package sqlite

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
)

// Scanner maps result columns onto struct fields by `db` tag or field name.
type Scanner struct{}

func NewScanner() *Scanner {
	return &Scanner{}
}

func (s *Scanner) ScanRowsToSlice(rows *sql.Rows, dest interface{}) error {
	destValue := reflect.ValueOf(dest)

	if destValue.Kind() != reflect.Ptr || destValue.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("dest must be a pointer to slice")
	}

	sliceValue := destValue.Elem()
	elemType := sliceValue.Type().Elem()

	if elemType.Kind() != reflect.Struct {
		return fmt.Errorf("slice elements must be structs")
	}

	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	fields := make([][]int, len(columns))
	for i, column := range columns {
		field, ok := s.findStructField(elemType, column)
		if !ok {
			return fmt.Errorf("no field for column %q in %s", column, elemType.Name())
		}
		fields[i] = field.Index
	}

	for rows.Next() {
		elem := reflect.New(elemType).Elem()

		scanArgs := make([]interface{}, len(columns))
		for i, index := range fields {
			scanArgs[i] = elem.FieldByIndex(index).Addr().Interface()
		}

		if err := rows.Scan(scanArgs...); err != nil {
			return err
		}

		sliceValue.Set(reflect.Append(sliceValue, elem))
	}

	return rows.Err()
}

func (s *Scanner) findStructField(structType reflect.Type, colName string) (reflect.StructField, bool) {
	colNameLower := strings.ToLower(colName)

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if tag := field.Tag.Get("db"); tag != "" && strings.ToLower(tag) == colNameLower {
			return field, true
		}
	}

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if strings.ToLower(field.Name) == colNameLower {
			return field, true
		}
	}

	return s.snakeToCamelField(structType, colName)
}

func (s *Scanner) snakeToCamelField(structType reflect.Type, snake string) (reflect.StructField, bool) {
	parts := strings.Split(snake, "_")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + strings.ToLower(parts[i][1:])
		}
	}

	return structType.FieldByName(strings.Join(parts, ""))
}
