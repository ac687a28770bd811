package pos

type Status string

const (
	StatusOpen Status = "OPEN"
	StatusPaid Status = "PAID"
	StatusVoid Status = "VOID"
)

var validNext = map[Status]map[Status]bool{
	StatusOpen: {StatusPaid: true, StatusVoid: true},
	StatusPaid: {},
	StatusVoid: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	_, ok := validNext[st]
	return st, ok
}
