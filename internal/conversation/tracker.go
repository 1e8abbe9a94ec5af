// Package conversation tracks the one free-text answer a recipient may owe
// the bot, validates that answer, and decodes button commands.
package conversation

import "sync"

type State string

const (
	AwaitingFamilyName   State = "awaiting_family_name"
	AwaitingProfileField State = "awaiting_profile_field"
)

// Field is a baby profile field that can be edited.
type Field string

const (
	FieldName   Field = "name"
	FieldBirth  Field = "birth"
	FieldGender Field = "gender"
	FieldWeight Field = "weight"
	FieldHeight Field = "height"
)

var fields = map[string]Field{
	"name":   FieldName,
	"birth":  FieldBirth,
	"gender": FieldGender,
	"weight": FieldWeight,
	"height": FieldHeight,
}

// Pending is what the next text message from a recipient will be read as.
// Field is set only for AwaitingProfileField.
type Pending struct {
	State State
	Field Field
}

// Tracker holds at most one Pending per recipient. It lives only in memory;
// a restart forgets every pending interaction.
type Tracker struct {
	mu      sync.Mutex
	pending map[int64]Pending
}

func NewTracker() *Tracker {
	return &Tracker{pending: make(map[int64]Pending)}
}

// Begin records what the recipient's next message answers, replacing any
// earlier pending interaction.
func (t *Tracker) Begin(recipientID int64, p Pending) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[recipientID] = p
}

func (t *Tracker) Peek(recipientID int64) (Pending, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.pending[recipientID]
	return p, ok
}

func (t *Tracker) Clear(recipientID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, recipientID)
}

// Reset forgets every pending interaction.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = make(map[int64]Pending)
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
