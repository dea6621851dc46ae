package table_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embedlab/hidim-go/pkg/pipeline"
	"github.com/embedlab/hidim-go/pkg/table"
)

func TestAppendKeepsFirstAppearanceOrder(t *testing.T) {
	tab := table.New()
	require.NoError(t, tab.Append("b", "1"))
	require.NoError(t, tab.Append("a", "2"))
	require.NoError(t, tab.Append("b", "3"))
	require.NoError(t, tab.Append("c", "4"))

	assert.Equal(t, []string{"b", "a", "c"}, tab.Groups())
	assert.Equal(t, []string{"1", "3"}, tab.Members("b"))
	assert.Equal(t, []string{"2"}, tab.Members("a"))
	assert.Equal(t, 4, tab.Len())
	assert.Equal(t, 3, tab.GroupCount())
}

func TestAppendStringifiesValues(t *testing.T) {
	tab := table.New()
	require.NoError(t, tab.Append(42, 7))
	require.NoError(t, tab.Append(42, 3.5))

	assert.Equal(t, []string{"42"}, tab.Groups())
	assert.Equal(t, []string{"7", "3.5"}, tab.Members("42"))
}

func TestAppendRejectsEmptyFields(t *testing.T) {
	tab := table.New()

	err := tab.Append("", "1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrInvalidArgument))

	err = tab.Append("g", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrInvalidArgument))
}

func TestFromPairs(t *testing.T) {
	tab, err := table.FromPairs([]table.Pair{
		{Group: "A", Member: 1},
		{Group: "A", Member: 2},
		{Group: "B", Member: 3},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, tab.Groups())
	assert.Equal(t, []string{"1", "2"}, tab.Members("A"))
}

func TestFromColumns(t *testing.T) {
	columns := map[string][]interface{}{
		"user_id": {"u1", "u1", "u2"},
		"item_id": {10, 11, 12},
	}

	tab, err := table.FromColumns(columns, "user_id", "item_id")
	require.NoError(t, err)

	assert.Equal(t, []string{"u1", "u2"}, tab.Groups())
	assert.Equal(t, []string{"10", "11"}, tab.Members("u1"))
	assert.Equal(t, []string{"12"}, tab.Members("u2"))
}

func TestFromColumnsMissingColumn(t *testing.T) {
	columns := map[string][]interface{}{
		"user_id": {"u1"},
	}

	_, err := table.FromColumns(columns, "user_id", "item_id")
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrMissingColumn))

	_, err = table.FromColumns(columns, "group", "user_id")
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrMissingColumn))
}

func TestFromColumnsRaggedColumns(t *testing.T) {
	columns := map[string][]interface{}{
		"user_id": {"u1", "u2"},
		"item_id": {10},
	}

	_, err := table.FromColumns(columns, "user_id", "item_id")
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrInvalidArgument))
}

func TestMembersReturnsCopy(t *testing.T) {
	tab := table.New()
	require.NoError(t, tab.Append("g", "1"))

	members := tab.Members("g")
	members[0] = "mutated"
	assert.Equal(t, []string{"1"}, tab.Members("g"))

	assert.Nil(t, tab.Members("absent"))
}
