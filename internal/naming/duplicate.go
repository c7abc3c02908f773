package naming

// DuplicateBy returns the first item whose key equals the key of an item
// before it. ok is false when every key is unique, including for an empty
// slice.
//
// The scan is quadratic; it is meant as a lint pass over the operations or
// types of one source before anything is emitted.
func DuplicateBy[T any, K comparable](items []T, key func(T) K) (dup T, ok bool) {
	_, later, ok := FirstDuplicate(items, key)
	if !ok {
		return dup, false
	}
	return items[later], true
}

// FirstDuplicate is DuplicateBy returning indexes: later is the first item
// whose key repeats and earlier is the first item carrying that key.
func FirstDuplicate[T any, K comparable](items []T, key func(T) K) (earlier, later int, ok bool) {
	for i := range items {
		k := key(items[i])
		for j := 0; j < i; j++ {
			if key(items[j]) == k {
				return j, i, true
			}
		}
	}
	return -1, -1, false
}
