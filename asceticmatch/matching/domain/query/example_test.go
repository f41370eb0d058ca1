package query_test

import (
	"fmt"

	"github.com/krew-solutions/ascetic-match-go/asceticmatch/matching/domain/query"
)

func ExampleMatcher_Explain() {
	q := query.New(
		query.Field("genre", "jazz"),
		query.Field("plays", query.Gte(1e9)),
	)
	m := query.BuildMatcher(q)

	result, err := m.Explain(map[string]any{"genre": "rock", "plays": 5e8})
	if err != nil {
		panic(err)
	}
	fmt.Println(result.Matched)
	fmt.Println(result.Failure.Message)
	// Output:
	// false
	// genre: eq-implicit expected "jazz", got "rock"
}

func ExampleQueryParser_ParseDocument() {
	q, err := query.NewQueryParser().ParseDocument([]byte(`
album:
  trackCount: {$gte: 1}
`))
	if err != nil {
		panic(err)
	}

	result, err := query.Explain(q, map[string]any{"album": nil})
	if err != nil {
		panic(err)
	}
	fmt.Println(result.Failure.Message)
	// Output:
	// album: nested expected object, got null
}

func ExampleMatcher_Predicate() {
	match := query.BuildMatcher(query.New(
		query.Field("genres", query.Ops(query.Contains("rock"), query.Size(3))),
	)).Predicate()

	fmt.Println(match(map[string]any{"genres": []string{"rock", "electronic", "alternative"}}))
	fmt.Println(match(map[string]any{"genres": []string{"rock"}}))
	// Output:
	// true
	// false
}
