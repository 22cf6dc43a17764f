package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusmcp/focusmcp/engine/omnifocus"
)

func TestItemSpec_ToItem(t *testing.T) {
	t.Run("Should build a task payload", func(t *testing.T) {
		item, err := ItemSpec{
			Kind:         "task",
			Name:         "Buy milk",
			TempID:       "milk",
			ParentTempID: "errands",
			OrderHint:    3,
			Tags:         []string{"store"},
			ProjectName:  "Home",
		}.ToItem()
		require.NoError(t, err)
		assert.Equal(t, Item{
			TempID:       "milk",
			ParentTempID: "errands",
			OrderHint:    3,
			Payload: TaskPayload{omnifocus.TaskInput{
				Name:        "Buy milk",
				Tags:        []string{"store"},
				ProjectName: "Home",
			}},
		}, item)
	})

	t.Run("Should build a project payload with an explicit parent", func(t *testing.T) {
		item, err := ItemSpec{Kind: "project", Name: "Q3", ParentID: "folder-1", Sequential: true}.ToItem()
		require.NoError(t, err)
		assert.Equal(t, "folder-1", item.ExplicitParentID)
		assert.Equal(t, KindProject, item.Payload.Kind())
		assert.True(t, item.Payload.(ProjectPayload).Sequential)
	})

	t.Run("Should reject unknown kinds and negative hints", func(t *testing.T) {
		_, err := ItemSpec{Kind: "folder", Name: "x"}.ToItem()
		assert.ErrorContains(t, err, `unknown kind "folder"`)
		_, err = ItemSpec{Kind: "task", Name: "x", OrderHint: -1}.ToItem()
		assert.Error(t, err)
	})
}

func TestEngine_RunSpecs(t *testing.T) {
	t.Run("Should run converted specs", func(t *testing.T) {
		fc := newFakeCreator()
		res := newTestEngine(t, fc).RunSpecs(testContext(t), []ItemSpec{
			{Kind: "project", Name: "Trip", TempID: "trip"},
			{Kind: "task", Name: "Book flights", ParentTempID: "trip"},
		})
		assert.True(t, res.Success)
		c, ok := fc.call("Book flights")
		require.True(t, ok)
		assert.Equal(t, "id-Trip", c.task.ProjectID)
	})

	t.Run("Should abort on an invalid spec", func(t *testing.T) {
		fc := newFakeCreator()
		res := newTestEngine(t, fc).RunSpecs(testContext(t), []ItemSpec{
			{Kind: "task", Name: "ok"},
			{Kind: "perspective", Name: "bad"},
		})
		assert.False(t, res.Success)
		assert.Empty(t, res.Results)
		assert.Contains(t, res.Error, "item 1")
		assert.Empty(t, fc.calledNames())
	})
}
