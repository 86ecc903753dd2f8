package interview

// Category is one of the six narrative topics walked by an interview.
type Category string

const (
	CategoryCompany  Category = "company"
	CategoryRole     Category = "role"
	CategoryDuration Category = "duration"
	CategoryProblem  Category = "problem"
	CategoryAction   Category = "action"
	CategoryResult   Category = "result"
)

// StepDone is the pseudo step reported once every category is collected.
const StepDone = "done"

// Categories is the fixed question order. It doubles as the STAR mapping:
// company feeds Situation, problem feeds Task, action and result map directly.
var Categories = []Category{
	CategoryCompany,
	CategoryRole,
	CategoryDuration,
	CategoryProblem,
	CategoryAction,
	CategoryResult,
}

// Index returns the position of c in Categories or -1.
func (c Category) Index() int {
	for i, known := range Categories {
		if known == c {
			return i
		}
	}
	return -1
}

func (c Category) Valid() bool { return c.Index() >= 0 }

func (c Category) String() string { return string(c) }
