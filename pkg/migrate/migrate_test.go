package migrate

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/boardkit/pkg/core"
)

func score(id string, lo, hi float64) core.FieldDefinition {
	return core.FieldDefinition{ID: id, Label: id, Type: core.FieldNumber, Min: core.Float(lo), Max: core.Float(hi)}
}

func s1() *core.Schema {
	return &core.Schema{Fields: []core.FieldDefinition{
		{ID: "fullName", Label: "Full Name", Type: core.FieldString, Required: true},
		score("governance", 0, 10),
	}}
}

func s2() *core.Schema {
	s := s1()
	s.Fields = append(s.Fields, score("charisma", 0, 10))
	return s
}

func TestDiffAddedAndRemoved(t *testing.T) {
	forward := Diff(s1(), s2())
	require.Len(t, forward.Added, 1)
	assert.Equal(t, "charisma", forward.Added[0].ID)
	assert.Empty(t, forward.Removed)
	assert.False(t, forward.Destructive())

	backward := Diff(s2(), s1())
	require.Len(t, backward.Removed, 1)
	assert.Equal(t, "charisma", backward.Removed[0].ID)
	assert.Empty(t, backward.Added)
	assert.True(t, backward.Destructive())
}

func TestDiffIdentity(t *testing.T) {
	s := s2()
	s.RequiredCoreFields = []string{"fullName"}
	s.DefaultSort = &core.SortSpec{Field: "governance", Direction: core.SortDesc}

	plan := Diff(s, s)
	assert.True(t, plan.IsIdentity())
	assert.False(t, plan.RequiresMigration())
	if diff := cmp.Diff(&core.MigrationPlan{}, plan); diff != "" {
		t.Errorf("identity plan mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffEnumToMultiSelect(t *testing.T) {
	oldSchema := &core.Schema{Fields: []core.FieldDefinition{
		{ID: "availability", Label: "Availability", Type: core.FieldEnum, Options: []string{"Unknown", "Warm"}},
	}}
	newSchema := &core.Schema{Fields: []core.FieldDefinition{
		{ID: "availability", Label: "Availability", Type: core.FieldMultiSelect, Options: []string{"Unknown"}},
	}}

	plan := Diff(oldSchema, newSchema)
	assert.Equal(t, []core.TypeChange{{ID: "availability", FromType: core.FieldEnum, ToType: core.FieldMultiSelect}}, plan.TypeChanged)
	assert.Equal(t, []core.OptionsNarrowed{{ID: "availability", RemovedOptions: []string{"Warm"}}}, plan.OptionsNarrowed)
}

func TestDiffRanges(t *testing.T) {
	tests := []struct {
		name     string
		lo, hi   float64
		narrowed bool
	}{
		{name: "unchanged", lo: 0, hi: 10},
		{name: "widened", lo: -5, hi: 20},
		{name: "min tightened", lo: 1, hi: 10, narrowed: true},
		{name: "max tightened", lo: 0, hi: 5, narrowed: true},
		{name: "shifted", lo: 2, hi: 12, narrowed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldSchema := &core.Schema{Fields: []core.FieldDefinition{score("g", 0, 10)}}
			newSchema := &core.Schema{Fields: []core.FieldDefinition{score("g", tt.lo, tt.hi)}}
			plan := Diff(oldSchema, newSchema)
			assert.Equal(t, tt.narrowed, len(plan.RangeNarrowed) == 1)
		})
	}
}

func TestDiffItemTypeAndPresentation(t *testing.T) {
	oldSchema := &core.Schema{
		Fields: []core.FieldDefinition{
			{ID: "links", Label: "Links", Type: core.FieldList, ItemType: core.ItemString},
			{ID: "bio", Label: "Bio", Type: core.FieldString, MaxLength: 100},
		},
		RequiredCoreFields: []string{"bio"},
	}
	newSchema := &core.Schema{
		Fields: []core.FieldDefinition{
			{ID: "links", Label: "Links", Type: core.FieldList, ItemType: core.ItemURL},
			{ID: "bio", Label: "Biography", Type: core.FieldString, MaxLength: 200, CardFront: true},
		},
		DefaultSort: &core.SortSpec{Field: "bio", Direction: core.SortAsc},
	}

	plan := Diff(oldSchema, newSchema)
	assert.Equal(t, []core.ItemTypeChange{{ID: "links", FromItemType: core.ItemString, ToItemType: core.ItemURL}}, plan.ItemTypeChanged)
	assert.Equal(t, []core.FieldUpdate{{ID: "bio", Changes: []string{"label", "card front flag", "max length"}}}, plan.OtherUpdates)
	assert.Equal(t, []string{"defaultSort", "requiredCoreFields"}, plan.MetaChanges)
	assert.Empty(t, plan.TypeChanged)
}

func TestDiffDeterministic(t *testing.T) {
	oldSchema := s2()
	newSchema := s1()
	newSchema.Fields = append(newSchema.Fields, score("a", 0, 1), score("b", 0, 1), score("c", 0, 1))

	first := Diff(oldSchema, newSchema)
	for range 20 {
		if diff := cmp.Diff(first, Diff(oldSchema, newSchema)); diff != "" {
			t.Fatalf("diff not deterministic:\n%s", diff)
		}
	}
	ids := make([]string, 0, len(first.Added))
	for _, f := range first.Added {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestApplyAddedUsesDefaults(t *testing.T) {
	records := []core.Record{
		{ID: "1", Data: map[string]any{"fullName": "Ada", "governance": 7.0}},
		{ID: "2", Data: map[string]any{"fullName": "Bob", "governance": 3.0, "charisma": 9.0}},
	}

	plan := Diff(s1(), s2())
	res, err := Apply(plan, s2(), records, map[string]any{"charisma": 5.0})
	require.NoError(t, err)

	assert.Equal(t, 5.0, res.Records[0].Data["charisma"])
	assert.Equal(t, 9.0, res.Records[1].Data["charisma"], "existing value kept")
	_, touched := records[0].Data["charisma"]
	assert.False(t, touched, "input records must not be modified")
}

func TestApplyDefaultsAreDeepCopied(t *testing.T) {
	oldSchema := &core.Schema{Fields: []core.FieldDefinition{{ID: "name", Label: "Name", Type: core.FieldString}}}
	newSchema := &core.Schema{Fields: []core.FieldDefinition{
		{ID: "name", Label: "Name", Type: core.FieldString},
		{ID: "tags", Label: "Tags", Type: core.FieldList, ItemType: core.ItemString},
	}}
	records := []core.Record{{ID: "1", Data: map[string]any{}}, {ID: "2", Data: map[string]any{}}}

	res, err := Apply(Diff(oldSchema, newSchema), newSchema, records, map[string]any{"tags": []any{"x"}})
	require.NoError(t, err)

	res.Records[0].Data["tags"].([]any)[0] = "mutated"
	assert.Equal(t, []any{"x"}, res.Records[1].Data["tags"])
}

func TestApplyDestructiveChanges(t *testing.T) {
	oldSchema := &core.Schema{Fields: []core.FieldDefinition{
		{ID: "fullName", Label: "Full Name", Type: core.FieldString},
		{ID: "availability", Label: "Availability", Type: core.FieldEnum, Options: []string{"Unknown", "Warm"}},
		score("governance", 0, 10),
		{ID: "sources", Label: "Sources", Type: core.FieldList, ItemType: core.ItemString},
		{ID: "legacy", Label: "Legacy", Type: core.FieldText},
	}}
	newSchema := &core.Schema{Fields: []core.FieldDefinition{
		{ID: "fullName", Label: "Full Name", Type: core.FieldString},
		{ID: "availability", Label: "Availability", Type: core.FieldMultiSelect, Options: []string{"Unknown"}},
		score("governance", 0, 5),
		{ID: "sources", Label: "Sources", Type: core.FieldList, ItemType: core.ItemURL},
	}}
	records := []core.Record{{
		ID:    "1",
		Image: "data:image/png;base64,AAAA",
		Notes: []core.Note{{ID: "n1", Text: "keep me"}},
		Data: map[string]any{
			"fullName":     "Ada",
			"availability": "Warm",
			"governance":   8.0,
			"sources":      []any{"https://example.org", "not a url"},
			"legacy":       "gone",
		},
	}}

	plan := Diff(oldSchema, newSchema)
	require.True(t, plan.Destructive())

	res, err := Apply(plan, newSchema, records, nil)
	require.NoError(t, err)

	want := core.Record{
		ID:    "1",
		Image: "data:image/png;base64,AAAA",
		Notes: []core.Note{{ID: "n1", Text: "keep me"}},
		Data: map[string]any{
			"fullName":     "Ada",
			"availability": []any{},
			"governance":   5.0,
			"sources":      []any{"https://example.org"},
		},
	}
	if diff := cmp.Diff(want, res.Records[0]); diff != "" {
		t.Errorf("migrated record mismatch (-want +got):\n%s", diff)
	}
	assert.Same(t, newSchema, res.Schema)
}

func TestApplyTotalityAndNonInterference(t *testing.T) {
	oldSchema := s1()
	newSchema := s2()
	newSchema.Fields = append(newSchema.Fields, core.FieldDefinition{ID: "tags", Label: "Tags", Type: core.FieldMultiSelect, Options: []string{"a"}})

	records := []core.Record{
		{ID: "1", Data: map[string]any{"fullName": "Ada", "governance": 4.0, "extra": map[string]any{"k": []any{"v"}}}},
		{ID: "2", Data: nil},
	}

	res, err := Apply(Diff(oldSchema, newSchema), newSchema, records, nil)
	require.NoError(t, err)

	for _, rec := range res.Records {
		for _, f := range newSchema.Fields {
			_, ok := rec.Data[f.ID]
			assert.True(t, ok, "record %s missing %s", rec.ID, f.ID)
		}
	}
	assert.Equal(t, "Ada", res.Records[0].Data["fullName"])
	assert.Equal(t, 4.0, res.Records[0].Data["governance"])
	if diff := cmp.Diff(map[string]any{"k": []any{"v"}}, res.Records[0].Data["extra"]); diff != "" {
		t.Errorf("unrelated key changed:\n%s", diff)
	}
	assert.Nil(t, res.Records[1].Data["governance"])
	assert.Equal(t, []any{}, res.Records[1].Data["tags"])
}

func TestApplyRejectsStalePlan(t *testing.T) {
	plan := Diff(s1(), s2())

	_, err := Apply(plan, s1(), nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStalePlan))

	backward := Diff(s2(), s1())
	_, err = Apply(backward, s2(), nil, nil)
	assert.ErrorIs(t, err, ErrStalePlan)

	_, err = Apply(nil, s1(), nil, nil)
	assert.ErrorIs(t, err, ErrStalePlan)
}

func TestVerify(t *testing.T) {
	plan := Diff(s1(), s2())
	require.True(t, plan.RequiresMigration())

	assert.NoError(t, Verify(plan, s1(), s2()))
	assert.NoError(t, Verify(&core.MigrationPlan{
		Added:           plan.Added,
		Removed:         plan.Removed,
		TypeChanged:     plan.TypeChanged,
		ItemTypeChanged: plan.ItemTypeChanged,
		OptionsNarrowed: plan.OptionsNarrowed,
		RangeNarrowed:   plan.RangeNarrowed,
		OtherUpdates:    append([]core.FieldUpdate{}, plan.OtherUpdates...),
		MetaChanges:     append([]string{}, plan.MetaChanges...),
	}, s1(), s2()), "empty and nil lists are equal")

	assert.ErrorIs(t, Verify(&core.MigrationPlan{}, s1(), s2()), ErrStalePlan)
	assert.ErrorIs(t, Verify(Diff(s2(), s1()), s1(), s2()), ErrStalePlan)
	assert.ErrorIs(t, Verify(nil, s1(), s2()), ErrStalePlan)
}
