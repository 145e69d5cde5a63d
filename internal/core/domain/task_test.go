package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFetchTask_Identity(t *testing.T) {
	tests := []struct {
		name string
		task FetchTaskType
		want string
	}{
		{"basic info", BasicInfoTask{ScholarID: "X1"}, "basic_X1"},
		{"publications page", PublicationsPageTask{ScholarID: "X1", SortMode: SortByDate, Offset: 100}, "profile_X1_pubdate_100"},
		{"publications default sort", PublicationsPageTask{ScholarID: "X1"}, "profile_X1_total_0"},
		{"citing page by date", CitingArticlesPageTask{PublicationID: "c9", SortByDate: true, Offset: 10}, "citedby_c9_true_10"},
		{"citing page by relevance", CitingArticlesPageTask{PublicationID: "c9"}, "citedby_c9_false_0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.task.Identity())
		})
	}
}

func TestFetchTask_Kind(t *testing.T) {
	assert.Equal(t, PageKindProfile, BasicInfoTask{}.Kind())
	assert.Equal(t, PageKindProfile, PublicationsPageTask{}.Kind())
	assert.Equal(t, PageKindCiting, CitingArticlesPageTask{}.Kind())
}

func TestFetchTask_EntityID(t *testing.T) {
	assert.Equal(t, "X1", BasicInfoTask{ScholarID: "X1"}.EntityID())
	assert.Equal(t, "X1", PublicationsPageTask{ScholarID: "X1"}.EntityID())
	assert.Equal(t, "c9", CitingArticlesPageTask{PublicationID: "c9"}.EntityID())
}

func TestFetchTask_Validate(t *testing.T) {
	tests := []struct {
		name    string
		task    FetchTaskType
		wantErr bool
	}{
		{"valid basic", BasicInfoTask{ScholarID: "X1"}, false},
		{"empty scholar", BasicInfoTask{}, true},
		{"valid page", PublicationsPageTask{ScholarID: "X1", SortMode: SortByTitle}, false},
		{"unknown sort", PublicationsPageTask{ScholarID: "X1", SortMode: "random"}, true},
		{"negative offset", PublicationsPageTask{ScholarID: "X1", Offset: -1}, true},
		{"valid citing", CitingArticlesPageTask{PublicationID: "c9"}, false},
		{"empty publication", CitingArticlesPageTask{}, true},
		{"negative citing offset", CitingArticlesPageTask{PublicationID: "c9", Offset: -10}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPriority(t *testing.T) {
	assert.True(t, PriorityHigh > PriorityMedium)
	assert.True(t, PriorityMedium > PriorityLow)
	assert.Equal(t, "high", PriorityHigh.String())
	assert.Equal(t, "priority(7)", Priority(7).String())
	assert.True(t, PriorityLow.IsValid())
	assert.False(t, Priority(0).IsValid())
}
