package scale

import "fmt"

// QuorumError reports a removal that would leave etcd without quorum.
type QuorumError struct {
	ControlPlanes int // control planes before removal
	Removing      int // control planes selected for removal
	Remaining     int
	Quorum        int
	MaxRemovable  int
}

func (e *QuorumError) Error() string {
	if e.Remaining == 0 {
		return fmt.Sprintf("cannot remove all control planes: removing %d of %d", e.Removing, e.ControlPlanes)
	}
	return fmt.Sprintf("removing %d of %d control planes would break quorum: %d would remain, quorum needs %d (at most %d can be removed)",
		e.Removing, e.ControlPlanes, e.Remaining, e.Quorum, e.MaxRemovable)
}

// QuorumSize is the etcd majority for c members.
func QuorumSize(c int) int {
	return c/2 + 1
}

// ValidateQuorum checks removing r of c control planes. The quorum is
// computed over the pre-removal count. An even number of remaining control
// planes is allowed but returned as a warning.
func ValidateQuorum(c, r int) (warning string, err error) {
	if r == 0 {
		return "", nil
	}

	remaining := c - r
	quorum := QuorumSize(c)
	qerr := &QuorumError{
		ControlPlanes: c,
		Removing:      r,
		Remaining:     remaining,
		Quorum:        quorum,
		MaxRemovable:  max(c-quorum, 0),
	}

	if remaining <= 0 {
		qerr.Remaining = 0
		return "", qerr
	}
	if remaining < quorum {
		return "", qerr
	}
	if remaining%2 == 0 {
		return fmt.Sprintf("%d control planes will remain; an even count tolerates no more failures than %d", remaining, remaining-1), nil
	}
	return "", nil
}
