package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNextMonday(t *testing.T) {
	cases := []struct {
		today Date
		want  Date
	}{
		{NewDate(2025, time.January, 6), NewDate(2025, time.January, 13)},  // Monday skips to the following Monday
		{NewDate(2025, time.January, 7), NewDate(2025, time.January, 13)},  // Tuesday
		{NewDate(2025, time.January, 11), NewDate(2025, time.January, 13)}, // Saturday
		{NewDate(2025, time.January, 12), NewDate(2025, time.January, 13)}, // Sunday
		{NewDate(2024, time.December, 31), NewDate(2025, time.January, 6)},
	}
	for _, tc := range cases {
		got := NextMonday(tc.today)
		assert.True(t, got.Equal(tc.want), "NextMonday(%s) = %s, want %s", tc.today, got, tc.want)
		assert.Equal(t, time.Monday, got.Weekday())
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2025, time.March, 9)
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-09"`, string(raw))

	var back Date
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.Equal(d))

	require.NoError(t, json.Unmarshal([]byte("null"), &back))
	assert.True(t, back.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"09/03/2025"`), &back))
	assert.Error(t, json.Unmarshal([]byte(`20250309`), &back))
}

func TestDateBSON(t *testing.T) {
	type doc struct {
		D Date `bson:"d"`
	}
	in := doc{D: NewDate(2025, time.July, 1)}
	raw, err := bson.Marshal(in)
	require.NoError(t, err)

	var generic bson.M
	require.NoError(t, bson.Unmarshal(raw, &generic))
	assert.IsType(t, primitive.DateTime(0), generic["d"], "date should be stored as a BSON datetime")

	var out doc
	require.NoError(t, bson.Unmarshal(raw, &out))
	assert.True(t, out.D.Equal(in.D))
	assert.Equal(t, "2025-07-01", out.D.String())
}

func TestDateOfUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	instant := time.Date(2025, time.May, 1, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-05-01", DateOf(instant).String())
	assert.Equal(t, "2025-05-02", DateOf(instant.In(loc)).String())
}
