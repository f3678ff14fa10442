package compiler

import bc "github.com/KromDaniel/pcrego/internal/bytecode"

// shiftInsert fixes up the program after n bytes were inserted at pc at.
// Bracket links are relative and never span the insertion point from
// outside, so only RECURSE targets and the forward-reference arena move.
func (c *compileContext) shiftInsert(at, n int) {
	for p := 0; p < len(c.code); p = bc.Next(c.code, p, c.utf) {
		if p >= at && p < at+n {
			continue
		}
		if bc.Opcode(c.code[p]) != bc.OpRecurse {
			continue
		}
		target := bc.GetRecurse(c.code, p)
		if target != bc.RecurseUnresolved && target >= at {
			bc.PutRecurse(c.code, p, target+n)
		}
	}
	for i := range c.fwd {
		if c.fwd[i].pos >= at {
			c.fwd[i].pos += n
		}
	}
}

// patchCopy fixes up a clone of the region [src, src+length) that was
// written at dst. RECURSE targets inside the region are moved onto the
// clone and forward references inside the region are duplicated for the
// clone.
func (c *compileContext) patchCopy(src, dst, length int) error {
	delta := dst - src
	for q := dst; q < dst+length; q = bc.Next(c.code, q, c.utf) {
		if bc.Opcode(c.code[q]) != bc.OpRecurse {
			continue
		}
		target := bc.GetRecurse(c.code, q)
		if target != bc.RecurseUnresolved && target >= src && target < src+length {
			bc.PutRecurse(c.code, q, target+delta)
		}
	}
	n := len(c.fwd)
	for i := 0; i < n; i++ {
		r := c.fwd[i]
		if r.pos >= src && r.pos < src+length {
			r.pos += delta
			if err := c.addForward(r); err != nil {
				return err
			}
		}
	}
	return nil
}
