package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pub(cluster string, citations int) Publication {
	return Publication{Title: "Title " + cluster, ClusterID: cluster, CitationCount: IntPtr(citations)}
}

func keys(items []Publication) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.IdentityKey()
	}
	return out
}

func TestMergePage_FirstPageReplaces(t *testing.T) {
	existing := []Publication{pub("A", 5), pub("B", 3)}
	incoming := []Publication{pub("A", 6), pub("C", 1)}

	res := MergePage(existing, incoming, 0)

	assert.Equal(t, []string{"A", "C"}, keys(res.Items))
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.New)
	assert.Equal(t, 6, res.Items[0].Citations())
}

func TestMergePage_LaterPageUnions(t *testing.T) {
	existing := []Publication{pub("A", 5), pub("B", 3)}
	incoming := []Publication{pub("C", 2)}

	res := MergePage(existing, incoming, 100)

	assert.Equal(t, []string{"C", "A", "B"}, keys(res.Items))
	assert.Equal(t, 0, res.Updated)
	assert.Equal(t, 1, res.New)
}

func TestMergePage_UnchangedKeepsExisting(t *testing.T) {
	existing := []Publication{{Title: "Old title", ClusterID: "A", CitationCount: IntPtr(5)}}
	incoming := []Publication{{Title: "New title", ClusterID: "A", CitationCount: IntPtr(5)}}

	res := MergePage(existing, incoming, 0)

	require.Len(t, res.Items, 1)
	assert.Equal(t, "Old title", res.Items[0].Title)
	assert.Zero(t, res.Updated)
	assert.Zero(t, res.New)
}

func TestMergePage_UnknownToKnownCountIsUpdate(t *testing.T) {
	existing := []Publication{{Title: "T", ClusterID: "A"}}
	incoming := []Publication{pub("A", 0)}

	res := MergePage(existing, incoming, 0)

	assert.Equal(t, 1, res.Updated)
}

func TestMergePage_EmptyExisting(t *testing.T) {
	res := MergePage(nil, []Publication{pub("A", 1), pub("B", 2)}, 0)

	assert.Equal(t, 2, res.New)
	assert.Len(t, res.Items, 2)
}

func TestMergePage_EmptyIncomingFirstPage(t *testing.T) {
	res := MergePage([]Publication{pub("A", 1)}, nil, 0)

	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Items)
}

func TestMergePage_DuplicateIdentityInPage(t *testing.T) {
	incoming := []Publication{pub("A", 1), pub("A", 9)}

	res := MergePage(nil, incoming, 0)

	require.Len(t, res.Items, 1)
	assert.Equal(t, 1, res.Items[0].Citations())
	assert.Equal(t, 1, res.New)
}

func TestMergePage_AtMostOneEntryPerIdentity(t *testing.T) {
	existing := []Publication{pub("A", 1), pub("B", 1), pub("C", 1)}
	incoming := []Publication{pub("B", 2), pub("D", 1)}

	res := MergePage(existing, incoming, 200)

	seen := map[string]int{}
	for _, p := range res.Items {
		seen[p.IdentityKey()]++
	}
	for key, n := range seen {
		assert.Equal(t, 1, n, "identity %s", key)
	}
	assert.Len(t, res.Items, 4)
}

func TestMergePage_CitingArticles(t *testing.T) {
	existing := []CitingArticle{{ID: "x"}, {ID: "y"}}
	incoming := []CitingArticle{{ID: "z"}, {ID: "x"}}

	res := MergePage(existing, incoming, 10)

	ids := make([]string, len(res.Items))
	for i, a := range res.Items {
		ids[i] = a.ID
	}
	assert.Equal(t, []string{"z", "x", "y"}, ids)
	assert.Equal(t, 1, res.New)
	assert.Zero(t, res.Updated)
}

func TestComparePublications(t *testing.T) {
	older := []Publication{pub("A", 10), pub("B", 5), pub("C", 7)}
	newer := []Publication{pub("A", 12), pub("B", 9), pub("C", 6), pub("D", 1)}

	changes := ComparePublications(older, newer)

	require.Len(t, changes.Increased, 2)
	assert.Equal(t, "B", changes.Increased[0].Publication.ClusterID)
	assert.Equal(t, 4, changes.Increased[0].Delta())
	assert.Equal(t, "A", changes.Increased[1].Publication.ClusterID)

	require.Len(t, changes.Decreased, 1)
	assert.Equal(t, "C", changes.Decreased[0].Publication.ClusterID)

	require.Len(t, changes.New, 1)
	assert.Equal(t, "D", changes.New[0].ClusterID)

	assert.True(t, changes.HasChanges())
	assert.Equal(t, 6, changes.TotalNewCitations())
}

func TestComparePublications_NoChanges(t *testing.T) {
	list := []Publication{pub("A", 1)}

	changes := ComparePublications(list, list)

	assert.False(t, changes.HasChanges())
	assert.Zero(t, changes.TotalNewCitations())
}
