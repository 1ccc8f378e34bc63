package console

import "sync"

// Confirmer answers the controller's prompt with the user's answer
// collected beforehand. The view asks the question; a "yes" arms the
// confirmer for exactly one Confirm call.
type Confirmer struct {
	mu     sync.Mutex
	armed  bool
	prompt string
}

func (c *Confirmer) Arm() {
	c.mu.Lock()
	c.armed = true
	c.mu.Unlock()
}

// Disarm drops an answer nobody asked for.
func (c *Confirmer) Disarm() {
	c.mu.Lock()
	c.armed = false
	c.mu.Unlock()
}

func (c *Confirmer) Confirm(prompt string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ok := c.armed
	c.armed = false
	c.prompt = prompt
	return ok
}

// LastPrompt returns the most recent prompt the controller asked.
func (c *Confirmer) LastPrompt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prompt
}
