package midi

// Functional transforms over sequences. Every transform returns a new
// Sequence and leaves its input untouched.

func cloneEvents(s *Sequence, out *Sequence) {
	out.ProgramChanges = append([]ProgramChange(nil), s.ProgramChanges...)
	out.ControlChanges = append([]ControlChange(nil), s.ControlChanges...)
	out.TempoChanges = append([]TempoChange(nil), s.TempoChanges...)
	out.TicksPerBeat = s.TicksPerBeat
}

// Stretch scales all event times by factor: 2.0 is twice as long
// (half speed), 0.5 is half as long. Factors below or at zero return
// the sequence unchanged.
func Stretch(s *Sequence, factor float64) *Sequence {
	if factor <= 0 {
		return s
	}

	out := &Sequence{TicksPerBeat: s.TicksPerBeat}
	out.Notes = make([]Note, len(s.Notes))
	for i, n := range s.Notes {
		n.Start *= factor
		n.Duration *= factor
		out.Notes[i] = n
	}
	out.ProgramChanges = make([]ProgramChange, len(s.ProgramChanges))
	for i, pc := range s.ProgramChanges {
		pc.Time *= factor
		out.ProgramChanges[i] = pc
	}
	out.ControlChanges = make([]ControlChange, len(s.ControlChanges))
	for i, cc := range s.ControlChanges {
		cc.Time *= factor
		out.ControlChanges[i] = cc
	}
	out.TempoChanges = make([]TempoChange, len(s.TempoChanges))
	for i, tc := range s.TempoChanges {
		tc.Time *= factor
		out.TempoChanges[i] = tc
	}
	return out
}

// Shift moves all events by offset seconds. Notes pushed before zero are
// truncated or dropped.
func Shift(s *Sequence, offset float64) *Sequence {
	out := &Sequence{TicksPerBeat: s.TicksPerBeat}

	for _, n := range s.Notes {
		start := n.Start + offset
		switch {
		case start >= 0:
			n.Start = start
			out.Notes = append(out.Notes, n)
		case start+n.Duration > 0:
			// Starts before zero but extends past it.
			n.Duration += start
			n.Start = 0
			out.Notes = append(out.Notes, n)
		}
	}
	for _, pc := range s.ProgramChanges {
		if pc.Time+offset >= 0 {
			pc.Time += offset
			out.ProgramChanges = append(out.ProgramChanges, pc)
		}
	}
	for _, cc := range s.ControlChanges {
		if cc.Time+offset >= 0 {
			cc.Time += offset
			out.ControlChanges = append(out.ControlChanges, cc)
		}
	}
	for _, tc := range s.TempoChanges {
		if tc.Time+offset >= 0 {
			tc.Time += offset
			out.TempoChanges = append(out.TempoChanges, tc)
		}
	}
	return out
}

// Transpose shifts every note by semitones, clamping to the MIDI range.
func Transpose(s *Sequence, semitones int) *Sequence {
	out := &Sequence{}
	cloneEvents(s, out)
	out.Notes = make([]Note, len(s.Notes))
	for i, n := range s.Notes {
		n.Pitch = clampInt(n.Pitch+semitones, 0, 127)
		out.Notes[i] = n
	}
	return out
}

// Accent applies a repeating velocity multiplier pattern across the notes.
func Accent(s *Sequence, pattern []float64) *Sequence {
	if len(pattern) == 0 {
		return s
	}

	out := &Sequence{}
	cloneEvents(s, out)
	out.Notes = make([]Note, len(s.Notes))
	for i, n := range s.Notes {
		n.Velocity = clampInt(int(float64(n.Velocity)*pattern[i%len(pattern)]), 1, 127)
		out.Notes[i] = n
	}
	return out
}

// Crescendo interpolates velocities linearly from startVelocity to
// endVelocity across the sequence's note starts.
func Crescendo(s *Sequence, startVelocity, endVelocity int) *Sequence {
	if len(s.Notes) == 0 {
		return s
	}

	first := s.Notes[0].Start
	last := s.Notes[0].Start
	for _, n := range s.Notes {
		if n.Start < first {
			first = n.Start
		}
		if n.Start > last {
			last = n.Start
		}
	}
	span := last - first
	if span <= 0 {
		return s
	}

	out := &Sequence{}
	cloneEvents(s, out)
	out.Notes = make([]Note, len(s.Notes))
	for i, n := range s.Notes {
		progress := (n.Start - first) / span
		v := float64(startVelocity) + float64(endVelocity-startVelocity)*progress
		n.Velocity = clampInt(int(v), 1, 127)
		out.Notes[i] = n
	}
	return out
}

// Diminuendo is Crescendo with the usual loud-to-soft argument order.
func Diminuendo(s *Sequence, startVelocity, endVelocity int) *Sequence {
	return Crescendo(s, startVelocity, endVelocity)
}

// Trim keeps notes starting in [start, end) and rebases times so the
// kept range starts at zero.
func Trim(s *Sequence, start, end float64) *Sequence {
	out := &Sequence{TicksPerBeat: s.TicksPerBeat}

	for _, n := range s.Notes {
		if start <= n.Start && n.Start < end {
			n.Start -= start
			out.Notes = append(out.Notes, n)
		}
	}
	for _, pc := range s.ProgramChanges {
		if start <= pc.Time && pc.Time < end {
			pc.Time -= start
			out.ProgramChanges = append(out.ProgramChanges, pc)
		}
	}
	for _, cc := range s.ControlChanges {
		if start <= cc.Time && cc.Time < end {
			cc.Time -= start
			out.ControlChanges = append(out.ControlChanges, cc)
		}
	}
	for _, tc := range s.TempoChanges {
		if start <= tc.Time && tc.Time < end {
			tc.Time -= start
			out.TempoChanges = append(out.TempoChanges, tc)
		}
	}
	return out
}

// Merge layers sequences so they play simultaneously.
func Merge(sequences ...*Sequence) *Sequence {
	if len(sequences) == 0 {
		return NewSequence()
	}

	out := &Sequence{TicksPerBeat: sequences[0].TicksPerBeat}
	for _, s := range sequences {
		out.Notes = append(out.Notes, s.Notes...)
		out.ProgramChanges = append(out.ProgramChanges, s.ProgramChanges...)
		out.ControlChanges = append(out.ControlChanges, s.ControlChanges...)
		out.TempoChanges = append(out.TempoChanges, s.TempoChanges...)
	}

	sortNotes(out.Notes)
	sortProgramChanges(out.ProgramChanges)
	sortTempoChanges(out.TempoChanges)
	return out
}

// Concatenate plays sequences end to end with an optional gap in seconds
// between them.
func Concatenate(gap float64, sequences ...*Sequence) *Sequence {
	if len(sequences) == 0 {
		return NewSequence()
	}

	out := &Sequence{TicksPerBeat: sequences[0].TicksPerBeat}
	var offset float64

	for _, s := range sequences {
		for _, n := range s.Notes {
			n.Start += offset
			out.Notes = append(out.Notes, n)
		}
		for _, pc := range s.ProgramChanges {
			pc.Time += offset
			out.ProgramChanges = append(out.ProgramChanges, pc)
		}
		for _, cc := range s.ControlChanges {
			cc.Time += offset
			out.ControlChanges = append(out.ControlChanges, cc)
		}
		for _, tc := range s.TempoChanges {
			tc.Time += offset
			out.TempoChanges = append(out.TempoChanges, tc)
		}
		offset += s.Duration() + gap
	}
	return out
}
