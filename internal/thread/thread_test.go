package thread

import (
	"CaseComments/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func comment(id, parent string, at int) *models.Comment {
	c := &models.Comment{
		ID:        id,
		CaseID:    "C1",
		Author:    "u1",
		Content:   "body " + id,
		CreatedAt: time.Unix(int64(at), 0),
	}
	if parent != "" {
		c.ParentID = &parent
	}
	return c
}

func ids(nodes []*models.CommentNode) []string {
	out := []string{}
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestBuildGroupsRepliesUnderParent(t *testing.T) {
	// r1 and r2 are interleaved with unrelated comments.
	list := []*models.Comment{
		comment("p", "", 1),
		comment("x", "", 2),
		comment("r2", "p", 3),
		comment("y", "x", 4),
		comment("r1", "p", 5),
	}

	roots := Build(list)
	require.Equal(t, []string{"p", "x"}, ids(roots))
	assert.ElementsMatch(t, []string{"r1", "r2"}, ids(roots[0].Children))
	assert.Equal(t, []string{"y"}, ids(roots[1].Children))
}

func TestBuildUnboundedDepth(t *testing.T) {
	list := []*models.Comment{comment("a", "", 1)}
	prev := "a"
	for i, id := range []string{"b", "c", "d", "e", "f"} {
		list = append(list, comment(id, prev, i+2))
		prev = id
	}

	var visited []string
	var depths []int
	Walk(Build(list), func(n *models.CommentNode, depth int) {
		visited = append(visited, n.ID)
		depths = append(depths, depth)
	})
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, visited)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, depths)
}

func TestBuildHidesOrphans(t *testing.T) {
	list := []*models.Comment{
		comment("a", "", 1),
		comment("lost", "deleted", 2),
		comment("lost-child", "lost", 3),
	}

	var visited []string
	Walk(Build(list), func(n *models.CommentNode, _ int) { visited = append(visited, n.ID) })
	assert.Equal(t, []string{"a"}, visited)

	orphans := Orphans(list)
	require.Len(t, orphans, 1)
	assert.Equal(t, "lost", orphans[0].ID)
}

func TestBuildTerminatesOnParentCycle(t *testing.T) {
	list := []*models.Comment{
		comment("root", "", 1),
		comment("a", "b", 2),
		comment("b", "a", 3),
		comment("self", "self", 4),
	}

	count := 0
	Walk(Build(list), func(*models.CommentNode, int) { count++ })
	assert.Equal(t, 1, count)
}

func TestChildren(t *testing.T) {
	list := []*models.Comment{
		comment("p", "", 1),
		comment("r1", "p", 2),
		comment("q", "", 3),
		comment("r2", "p", 4),
	}

	got := Children(list, "p")
	require.Len(t, got, 2)
	assert.Equal(t, "r1", got[0].ID)
	assert.Equal(t, "r2", got[1].ID)

	top := Children(list, "")
	assert.Len(t, top, 2)

	assert.Empty(t, Children(list, "missing"))
}
