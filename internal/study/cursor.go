package study

// Cursor walks a deck. Both ends clamp: Next on the last card and Prev on
// the first stay put, never wrap. Any move resets the flip state so the
// front side is shown again.
type Cursor struct {
	Length  int
	Pos     int
	Flipped bool
}

func NewCursor(length int) Cursor {
	return Cursor{Length: length}
}

func (c Cursor) Empty() bool {
	return c.Length == 0
}

// Next advances the cursor. Reports whether the position changed.
func (c *Cursor) Next() bool {
	if c.Pos+1 >= c.Length {
		return false
	}
	c.Pos++
	c.Flipped = false
	return true
}

// Prev moves the cursor back. Reports whether the position changed.
func (c *Cursor) Prev() bool {
	if c.Pos <= 0 {
		return false
	}
	c.Pos--
	c.Flipped = false
	return true
}

// Flip toggles which side of the current card is shown.
func (c *Cursor) Flip() {
	if c.Length == 0 {
		return
	}
	c.Flipped = !c.Flipped
}
