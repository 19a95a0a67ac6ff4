package uc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandloom/brandloom/engine/conversation"
)

func longHistory(n int) []conversation.Message {
	history := make([]conversation.Message, 0, n)
	for i := 0; i < n; i++ {
		role := conversation.RoleUser
		if i%2 == 1 {
			role = conversation.RoleAssistant
		}
		history = append(history, textMessage(role, strings.Repeat("m", 400)))
	}
	return history
}

func TestTruncateHistory_Execute(t *testing.T) {
	t.Run("Should reject nil input", func(t *testing.T) {
		out, err := NewTruncateHistory(nil).Execute(testContext(t))
		require.Error(t, err)
		assert.Nil(t, out)
		assert.Contains(t, err.Error(), "input cannot be nil")
	})

	t.Run("Should keep a history that already fits", func(t *testing.T) {
		history := longHistory(3)
		out, err := NewTruncateHistory(&TruncateHistoryInput{
			History:     history,
			TokenBudget: 1000,
		}).Execute(testContext(t))
		require.NoError(t, err)
		assert.Equal(t, 3, out.Kept)
		assert.Equal(t, 0, out.Dropped)
		assert.Len(t, out.History, 3)
	})

	t.Run("Should drop oldest messages beyond the budget", func(t *testing.T) {
		history := longHistory(5)
		out, err := NewTruncateHistory(&TruncateHistoryInput{
			History:     history,
			TokenBudget: 250,
		}).Execute(testContext(t))
		require.NoError(t, err)
		// Five 100-token messages against 250 keep the newest two.
		assert.Equal(t, 2, out.Kept)
		assert.Equal(t, 3, out.Dropped)
		require.Len(t, out.History, 2)
		assert.Equal(t, history[3].Role, out.History[0].Role)
		assert.Equal(t, history[4].Role, out.History[1].Role)
	})

	t.Run("Should tighten the budget when new media is present", func(t *testing.T) {
		history := longHistory(5)
		out, err := NewTruncateHistory(&TruncateHistoryInput{
			History:     history,
			TokenBudget: 250,
			HasNewMedia: true,
		}).Execute(testContext(t))
		require.NoError(t, err)
		// The aggressive factor shrinks 250 to 150, leaving only the newest.
		assert.Equal(t, 1, out.Kept)
		assert.Equal(t, 4, out.Dropped)
	})

	t.Run("Should keep the newest message even over budget", func(t *testing.T) {
		history := longHistory(4)
		out, err := NewTruncateHistory(&TruncateHistoryInput{
			History:     history,
			TokenBudget: 10,
		}).Execute(testContext(t))
		require.NoError(t, err)
		assert.Equal(t, 1, out.Kept)
		assert.Equal(t, 3, out.Dropped)
	})

	t.Run("Should fall back to the configured default budget", func(t *testing.T) {
		history := longHistory(4)
		out, err := NewTruncateHistory(&TruncateHistoryInput{
			History: history,
		}).Execute(testContext(t))
		require.NoError(t, err)
		// 400 tokens fit the 8192-token default with room to spare.
		assert.Equal(t, 4, out.Kept)
		assert.Equal(t, 0, out.Dropped)
	})
}
