package target

import "strings"

// LineItem is one rendered argument, local or register line.
type LineItem struct {
	Text    string
	Changed bool
}

// LineItems holds `info args`, `info locals` or `info registers` output one
// item per line.
type LineItems struct {
	Items []LineItem
}

// Len 返回长度
func (li *LineItems) Len() int {
	if li == nil {
		return 0
	}
	return len(li.Items)
}

// ParseLineItems splits output into indented items. An item is Changed when
// prev had an item at the same position with different text; it is a
// positional diff, so an inserted line flags everything below it.
func ParseLineItems(prev *LineItems, output string) *LineItems {
	li := &LineItems{}
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		item := LineItem{Text: "  " + line}
		if i := len(li.Items); i < prev.Len() {
			item.Changed = prev.Items[i].Text != item.Text
		}
		li.Items = append(li.Items, item)
	}
	return li
}

// Lines returns the item texts.
func (li *LineItems) Lines() []string {
	out := make([]string, 0, li.Len())
	for i := 0; i < li.Len(); i++ {
		out = append(out, li.Items[i].Text)
	}
	return out
}
