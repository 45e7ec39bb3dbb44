package services

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func explicitOf(codes ...string) []ResolvedGroup {
	out := make([]ResolvedGroup, 0, len(codes))
	for _, c := range codes {
		out = append(out, ResolvedGroup{GroupCode: c})
	}
	return out
}

func TestResolveModifierGroupsScenarios(t *testing.T) {
	tests := []struct {
		name     string
		explicit []string
		category []string
		inherit  bool
		want     []ResolvedGroup
	}{
		{
			name:     "explicit first then inherited in category order",
			explicit: []string{"TOPPINGS"},
			category: []string{"BREAD", "SIDE"},
			inherit:  true,
			want: []ResolvedGroup{
				{GroupCode: "TOPPINGS"},
				{GroupCode: "BREAD", Inherited: true},
				{GroupCode: "SIDE", Inherited: true},
			},
		},
		{
			name:     "explicit wins over inherited",
			explicit: []string{"BREAD"},
			category: []string{"BREAD", "SIDE"},
			inherit:  true,
			want: []ResolvedGroup{
				{GroupCode: "BREAD"},
				{GroupCode: "SIDE", Inherited: true},
			},
		},
		{
			name:     "inheritance disabled ignores category",
			explicit: nil,
			category: []string{"SIDE"},
			inherit:  false,
			want:     []ResolvedGroup{},
		},
		{
			name:     "empty category degrades to explicit only",
			explicit: []string{"A", "B"},
			category: nil,
			inherit:  true,
			want:     explicitOf("A", "B"),
		},
		{
			name:     "nothing selected and no inheritance",
			inherit:  false,
			want:     []ResolvedGroup{},
		},
		{
			name:     "duplicates inside inputs collapse to first occurrence",
			explicit: []string{"A", "B", "A"},
			category: []string{"C", "B", "C"},
			inherit:  true,
			want: []ResolvedGroup{
				{GroupCode: "A"},
				{GroupCode: "B"},
				{GroupCode: "C", Inherited: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveModifierGroups(tt.explicit, tt.category, tt.inherit))
		})
	}
}

func TestResolveModifierGroupsProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pool := []string{"A", "B", "C", "D", "E", "F"}
	pick := func() []string {
		n := rng.Intn(len(pool) + 1)
		out := make([]string, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, pool[rng.Intn(len(pool))])
		}
		return out
	}

	for i := 0; i < 500; i++ {
		explicit, category, inherit := pick(), pick(), rng.Intn(2) == 0
		got := ResolveModifierGroups(explicit, category, inherit)

		explicitSet := map[string]bool{}
		for _, c := range explicit {
			explicitSet[c] = true
		}

		seen := map[string]bool{}
		sawInherited := false
		for _, g := range got {
			assert.False(t, seen[g.GroupCode], "duplicate %s in %v", g.GroupCode, got)
			seen[g.GroupCode] = true

			if explicitSet[g.GroupCode] {
				assert.False(t, g.Inherited, "explicit code %s resolved as inherited", g.GroupCode)
			}
			if !inherit {
				assert.False(t, g.Inherited, "inherited entry with inheritance off")
			}
			if g.Inherited {
				sawInherited = true
			} else {
				assert.False(t, sawInherited, "explicit entry after inherited entries in %v", got)
			}
		}

		for c := range explicitSet {
			assert.True(t, seen[c], "explicit code %s dropped", c)
		}
		if inherit {
			for _, c := range category {
				assert.True(t, seen[c], "category code %s dropped", c)
			}
		}
	}
}

func TestResolveModifierGroupsDoesNotMutateInputs(t *testing.T) {
	explicit := []string{"B", "A"}
	category := []string{"A", "C"}

	_ = ResolveModifierGroups(explicit, category, true)

	assert.Equal(t, []string{"B", "A"}, explicit)
	assert.Equal(t, []string{"A", "C"}, category)
}
