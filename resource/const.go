package resource

//Operation represents tracked asset change
type Operation int

const (
	Added Operation = iota
	Modified
	Deleted
)

func (o Operation) String() string {
	switch o {
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	}
	return "undefined"
}
