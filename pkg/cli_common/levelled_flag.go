package clicommon

import (
	"fmt"
	"strconv"
)

// LevelledFlag is a counting flag: each bare use (-v, -vv) raises it by one, "false" lowers it
// and an explicit number sets it.
type LevelledFlag int

func (f *LevelledFlag) Set(s string) error {
	if on, err := strconv.ParseBool(s); err == nil {
		switch {
		case on:
			*f++
		case *f > 0:
			*f--
		}
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("invalid level %q: must be a boolean or a non-negative number", s)
	}
	*f = LevelledFlag(n)
	return nil
}

func (f *LevelledFlag) Type() string {
	return "level"
}

func (f *LevelledFlag) String() string {
	return strconv.Itoa(int(*f))
}
