package events

import "eventdesk/src-client/query"

// AllKey holds the unfiltered event list and prefixes every other event key.
var AllKey = query.Key{"events"}

// searchPrefix prefixes every filtered list.
var searchPrefix = query.Key{"events", "search"}

func DetailKey(id string) query.Key {
	return query.Key{"events", id}
}

func SearchKey(term string) query.Key {
	return query.Key{"events", "search", term}
}

// ListKey is AllKey for an empty term and SearchKey otherwise.
func ListKey(term string) query.Key {
	if term == "" {
		return AllKey
	}
	return SearchKey(term)
}

func isListKey(key query.Key) bool {
	return key.Equal(AllKey) || (len(key) == 3 && key.HasPrefix(searchPrefix))
}
