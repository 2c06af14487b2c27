package core

import (
	"encoding/json"
)

// State is the durable record of an exploration session.
type State struct {
	// Pages holds every page analyzed this session by title.
	Pages map[string]*Page `json:"pages"`

	// PageStack is the path of selections.
	PageStack []string `json:"page_stack"`

	// PopStack holds titles removed by Pop.
	PopStack []string `json:"pop_stack"`

	// PopSelections holds the selection that was current when
	// the corresponding PopStack entry was popped.
	PopSelections []string `json:"pop_selections"`

	// UserChoiceStack is an audit trail of selections.  It is
	// never consumed.
	UserChoiceStack []string `json:"user_choice_stack"`

	// LastSearch is the most recent search result set.  It can
	// hold unresolved references and is never persisted.
	LastSearch []SearchResult `json:"-"`
}

// NewState makes an empty State.
func NewState() *State {
	return &State{
		Pages:           make(map[string]*Page),
		PageStack:       []string{},
		PopStack:        []string{},
		PopSelections:   []string{},
		UserChoiceStack: []string{},
	}
}

// Top returns the title at the top of the PageStack.
func (s *State) Top() (string, bool) {
	if len(s.PageStack) == 0 {
		return "", false
	}
	return s.PageStack[len(s.PageStack)-1], true
}

// String renders the State as JSON.
func (s *State) String() string {
	js, err := json.Marshal(s)
	if err != nil {
		return "{*}"
	}
	return string(js)
}

// Pointer is the cursor over a State.
//
// Empty strings mean "none".
type Pointer struct {
	Selection         string   `json:"selection"`
	MostSimilarColloc string   `json:"most_similar_colloc"`
	MostSimilarFreq   string   `json:"most_similar_freq"`
	SelectedText      []string `json:"selected_text"`
}

// Copy makes a deep copy of the Pointer.
func (p *Pointer) Copy() *Pointer {
	q := *p
	if p.SelectedText != nil {
		q.SelectedText = append([]string{}, p.SelectedText...)
	}
	return &q
}

// Functions maps a macro name to its command lines.
type Functions map[string][]string

// Session bundles the three documents that make up an exploration:
// the State, the Pointer, and the user's macros.
//
// A Session has a single writer.  All changes to State.Pages and to
// the stacks go through Register, Pop, Unpop, and Reset.
type Session struct {
	State     *State
	Pointer   *Pointer
	Functions Functions
}

// NewSession makes an empty Session.
func NewSession() *Session {
	return &Session{
		State:     NewState(),
		Pointer:   &Pointer{},
		Functions: make(Functions),
	}
}

// Normalize replaces missing parts (typically after loading partial
// snapshots) with empty ones.
func (s *Session) Normalize() *Session {
	if s.State == nil {
		s.State = NewState()
	}
	st := s.State
	if st.Pages == nil {
		st.Pages = make(map[string]*Page)
	}
	if st.PageStack == nil {
		st.PageStack = []string{}
	}
	if st.PopStack == nil {
		st.PopStack = []string{}
	}
	if st.PopSelections == nil {
		st.PopSelections = []string{}
	}
	for len(st.PopSelections) < len(st.PopStack) {
		st.PopSelections = append(st.PopSelections, "")
	}
	if st.UserChoiceStack == nil {
		st.UserChoiceStack = []string{}
	}
	if s.Pointer == nil {
		s.Pointer = &Pointer{}
	}
	if s.Functions == nil {
		s.Functions = make(Functions)
	}
	return s
}

// Register adds the given page to the State and selects it.
//
// This method is the only way a page enters State.Pages.
func (s *Session) Register(p *Page) error {
	if p == nil {
		return &UserError{Msg: "no page to register"}
	}
	if p.Title == "" {
		return &UserError{Msg: "page " + p.URL + " has no title"}
	}
	s.addPage(p)
	s.selectPage(p)
	return nil
}

func (s *Session) addPage(p *Page) {
	s.State.Pages[p.Title] = p
	s.State.PageStack = append(s.State.PageStack, p.Title)
}

func (s *Session) selectPage(p *Page) {
	s.State.UserChoiceStack = append(s.State.UserChoiceStack, p.Title)
	s.Pointer.Selection = p.Title
}

// Selected returns the page at Pointer.Selection.
func (s *Session) Selected() (*Page, error) {
	if s.Pointer.Selection == "" {
		return nil, NoSelection
	}
	p, have := s.State.Pages[s.Pointer.Selection]
	if !have {
		return nil, &InvariantViolation{
			What:  "selection",
			Title: s.Pointer.Selection,
		}
	}
	return p, nil
}

// Pop moves the top of the PageStack to the PopStack and selects the
// popped title.
func (s *Session) Pop() (string, error) {
	st := s.State
	title, ok := st.Top()
	if !ok {
		return "", EmptyStack
	}
	st.PageStack = st.PageStack[:len(st.PageStack)-1]
	st.PopStack = append(st.PopStack, title)
	st.PopSelections = append(st.PopSelections, s.Pointer.Selection)
	s.Pointer.Selection = title
	return title, nil
}

// Unpop reverses the most recent Pop, including the selection that
// was current before it.
func (s *Session) Unpop() (string, error) {
	st := s.State
	n := len(st.PopStack)
	if n == 0 {
		return "", EmptyStack
	}
	title := st.PopStack[n-1]
	st.PopStack = st.PopStack[:n-1]
	prior := ""
	if m := len(st.PopSelections); 0 < m {
		prior = st.PopSelections[m-1]
		st.PopSelections = st.PopSelections[:m-1]
	}
	st.PageStack = append(st.PageStack, title)
	s.Pointer.Selection = prior
	return title, nil
}

// Reset forgets everything.
func (s *Session) Reset() {
	s.State = NewState()
	s.Pointer = &Pointer{}
	s.Functions = make(Functions)
}

// Check verifies that no title in the stacks or the pointer dangles.
func (s *Session) Check() error {
	st := s.State
	have := func(what string, titles []string, allowEmpty bool) error {
		for _, title := range titles {
			if title == "" && allowEmpty {
				continue
			}
			if _, ok := st.Pages[title]; !ok {
				return &InvariantViolation{
					What:  what,
					Title: title,
				}
			}
		}
		return nil
	}
	if err := have("page_stack", st.PageStack, false); err != nil {
		return err
	}
	if err := have("pop_stack", st.PopStack, false); err != nil {
		return err
	}
	if err := have("pop_selections", st.PopSelections, true); err != nil {
		return err
	}
	if len(st.PopSelections) != len(st.PopStack) {
		return &InvariantViolation{
			What:  "pop_selections length",
			Title: "",
		}
	}
	if err := have("user_choice_stack", st.UserChoiceStack, false); err != nil {
		return err
	}
	return have("selection", []string{s.Pointer.Selection}, true)
}
