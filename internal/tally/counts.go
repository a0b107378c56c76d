package tally

// Counts is a frequency table that remembers the order in which keys were
// first seen. Iteration order is therefore reproducible for a given input,
// which keeps reports byte-for-byte comparable between runs.
//
// A Counts is not safe for concurrent use.
type Counts struct {
	index map[string]int
	order []Entry
}

// Entry is one row of a Counts table.
type Entry struct {
	Key   string
	Count uint64
}

func New() *Counts {
	return &Counts{index: map[string]int{}}
}

// Inc adds one to key, appending it if it has not been seen before.
func (c *Counts) Inc(key string) {
	c.Add(key, 1)
}

// Add adds n to key, appending it if it has not been seen before.
func (c *Counts) Add(key string, n uint64) {
	if i, ok := c.index[key]; ok {
		c.order[i].Count += n
		return
	}
	c.index[key] = len(c.order)
	c.order = append(c.order, Entry{Key: key, Count: n})
}

// Get returns the count for key, or 0 if it was never incremented.
func (c *Counts) Get(key string) uint64 {
	if i, ok := c.index[key]; ok {
		return c.order[i].Count
	}
	return 0
}

// Len reports the number of distinct keys.
func (c *Counts) Len() int {
	return len(c.order)
}

// Total returns the sum of all counts.
func (c *Counts) Total() uint64 {
	var sum uint64
	for _, e := range c.order {
		sum += e.Count
	}
	return sum
}

// Entries returns a copy of the rows in first-seen order.
func (c *Counts) Entries() []Entry {
	out := make([]Entry, len(c.order))
	copy(out, c.order)
	return out
}

// Map returns the table as a plain map, dropping the order.
func (c *Counts) Map() map[string]uint64 {
	out := make(map[string]uint64, len(c.order))
	for _, e := range c.order {
		out[e.Key] = e.Count
	}
	return out
}
