package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// modelPlan is the ordered set of db-tagged fields of one struct type.
type modelPlan struct {
	columns []string
	fields  [][]int
}

var modelPlans sync.Map // reflect.Type -> *modelPlan

// InsertModel builds a single-row insert from the db tags of model.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	return InsertModels(table, []any{model}, suffix)
}

// InsertModels builds one multi-row insert. Every model must share the
// struct type of the first one so the column list stays aligned.
func InsertModels[T any](table string, models []T, suffix string) (string, []any, error) {
	if len(models) == 0 {
		return "", nil, fmt.Errorf("insert values are required")
	}

	var (
		plan     *modelPlan
		planType reflect.Type
		builder  = InsertInto(table).Suffix(suffix)
	)
	for i, model := range models {
		value, err := structValue(model)
		if err != nil {
			return "", nil, fmt.Errorf("model %d: %w", i, err)
		}
		if plan == nil {
			plan, err = planFor(value.Type())
			if err != nil {
				return "", nil, err
			}
			planType = value.Type()
			builder.Columns(plan.columns...)
		} else if value.Type() != planType {
			return "", nil, fmt.Errorf("model %d: type %s differs from %s", i, value.Type(), planType)
		}
		builder.Values(plan.values(value)...)
	}
	return builder.ToSQL()
}

func structValue(model any) (reflect.Value, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer || value.Kind() == reflect.Interface {
		if value.IsNil() {
			return reflect.Value{}, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("model must be struct")
	}
	return value, nil
}

func planFor(typ reflect.Type) (*modelPlan, error) {
	if cached, ok := modelPlans.Load(typ); ok {
		return cached.(*modelPlan), nil
	}

	plan := &modelPlan{}
	collectColumns(typ, nil, plan)
	if len(plan.columns) == 0 {
		return nil, fmt.Errorf("model %s has no db columns", typ)
	}
	actual, _ := modelPlans.LoadOrStore(typ, plan)
	return actual.(*modelPlan), nil
}

// collectColumns walks exported fields, descending into untagged embedded
// structs so shared audit columns can live on a common base type.
func collectColumns(typ reflect.Type, prefix []int, plan *modelPlan) {
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		index := append(append([]int(nil), prefix...), i)

		tag := strings.TrimSpace(field.Tag.Get("db"))
		if field.Anonymous && tag == "" && field.Type.Kind() == reflect.Struct {
			collectColumns(field.Type, index, plan)
			continue
		}
		if !field.IsExported() {
			continue
		}
		col, _, _ := strings.Cut(tag, ",")
		col = strings.TrimSpace(col)
		if col == "" || col == "-" {
			continue
		}
		plan.columns = append(plan.columns, col)
		plan.fields = append(plan.fields, index)
	}
}

func (p *modelPlan) values(value reflect.Value) []any {
	out := make([]any, len(p.fields))
	for i, index := range p.fields {
		out[i] = value.FieldByIndex(index).Interface()
	}
	return out
}
