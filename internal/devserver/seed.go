package devserver

import "time"

// Demo credentials loaded by Seed.
const (
	DemoEmail    = "parent@example.com"
	DemoPassword = "password"
)

// Seed loads a demo parent with two children and a short history.
func (s *Store) Seed(now time.Time) error {
	s.AddChild(Child{ID: "1", FirstName: "Ada", LastName: "Lovelace"})
	s.AddChild(Child{ID: "2", FirstName: "Alan", LastName: "Turing"})
	if err := s.AddAccount(DemoEmail, DemoPassword, "1", "2"); err != nil {
		return err
	}

	base := now.UTC().Add(-2 * time.Hour).Truncate(time.Minute)
	history := []struct {
		child  string
		from   string
		text   string
		offset time.Duration
	}{
		{"1", FromStudent, "Hi! I finished the reading for today.", 0},
		{"1", FromStudent, "Can we go over fractions tomorrow?", 30 * time.Second},
		{"1", FromParent, "Great job. Yes, after school.", 5 * time.Minute},
		{"2", FromParent, "Don't forget your lunch.", 20 * time.Minute},
		{"2", FromStudent, "Got it", 45 * time.Minute},
	}
	for _, h := range history {
		if _, err := s.AddMessage(h.child, h.from, h.text, base.Add(h.offset)); err != nil {
			return err
		}
	}
	return nil
}
