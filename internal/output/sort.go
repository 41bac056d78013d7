package output

import (
	"cmp"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// SortCriteria defines a sort criterion with field name and direction
type SortCriteria struct {
	Field      string // Field name to sort by
	Descending bool   // If true, sort descending; otherwise ascending
}

// MultiFieldSort sorts a slice by multiple criteria
// The slice parameter must be a pointer to a slice
func MultiFieldSort(slice interface{}, criteria []SortCriteria) error {
	sliceVal := reflect.ValueOf(slice)
	if sliceVal.Kind() != reflect.Ptr {
		return fmt.Errorf("slice must be a pointer to a slice")
	}

	sliceVal = sliceVal.Elem()
	if sliceVal.Kind() != reflect.Slice {
		return fmt.Errorf("slice must be a pointer to a slice")
	}

	if len(criteria) == 0 {
		return fmt.Errorf("at least one sort criteria must be provided")
	}
	elem := sliceVal.Type().Elem()
	for elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		return fmt.Errorf("slice elements must be structs")
	}
	for _, c := range criteria {
		if _, ok := elem.FieldByName(c.Field); !ok {
			return fmt.Errorf("unknown sort field %s", c.Field)
		}
	}

	sort.SliceStable(sliceVal.Interface(), func(i, j int) bool {
		for _, c := range criteria {
			a, errA := getFieldValue(sliceVal.Index(i), c.Field)
			b, errB := getFieldValue(sliceVal.Index(j), c.Field)
			if errA != nil || errB != nil {
				return false
			}
			if order := compareValues(a, b); order != 0 {
				return (order < 0) != c.Descending
			}
		}
		return false
	})

	return nil
}

// getFieldValue gets a field value from a struct using reflection
func getFieldValue(val reflect.Value, fieldName string) (interface{}, error) {
	// Dereference pointers
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, fmt.Errorf("nil pointer encountered")
		}
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("value is not a struct")
	}

	field := val.FieldByName(fieldName)
	if !field.IsValid() {
		return nil, fmt.Errorf("field %s not found", fieldName)
	}

	return field.Interface(), nil
}

// compareValues orders two field values of the same kind. Nil sorts first,
// false before true, and kinds without a natural order compare by their %v
// rendering.
func compareValues(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	switch av.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(av.Int(), bv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return cmp.Compare(av.Uint(), bv.Uint())
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(av.Float(), bv.Float())
	case reflect.String:
		return cmp.Compare(av.String(), bv.String())
	case reflect.Bool:
		return cmp.Compare(boolRank(av.Bool()), boolRank(bv.Bool()))
	default:
		return cmp.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ParseSortCriteria parses a spec such as "ca:desc,id" against the JSON
// field names of sample's struct type. Each entry is a JSON name with an
// optional ":asc" or ":desc" suffix.
func ParseSortCriteria(spec string, sample interface{}) ([]SortCriteria, error) {
	typ := reflect.TypeOf(sample)
	for typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("sort sample must be a struct")
	}

	byJSON := make(map[string]string, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, skip := parseJSONTag(f.Tag.Get("json"))
		if skip {
			continue
		}
		if name == "" {
			name = f.Name
		}
		byJSON[strings.ToLower(name)] = f.Name
	}

	var criteria []SortCriteria
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, dir, _ := strings.Cut(part, ":")
		field, ok := byJSON[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("unknown sort field %q", name)
		}
		c := SortCriteria{Field: field}
		switch strings.ToLower(dir) {
		case "", "asc":
		case "desc":
			c.Descending = true
		default:
			return nil, fmt.Errorf("invalid sort direction %q for %s", dir, name)
		}
		criteria = append(criteria, c)
	}
	if len(criteria) == 0 {
		return nil, fmt.Errorf("empty sort specification")
	}
	return criteria, nil
}
