package scene

import (
	"fmt"
	"strings"

	"reelcast/internal/services"
)

const cinematography = "The presenter faces the camera and speaks naturally, with natural head movement and subtle hand gestures. " +
	"Professional lighting, cinematic quality, shallow depth of field."

// Check reports whether style resolves and, for styles without a canned
// description, whether a custom prompt was given.
func (c *Catalog) Check(style, customPrompt string) error {
	resolved, err := c.Lookup(style)
	if err != nil {
		return err
	}
	if strings.TrimSpace(customPrompt) == "" && (resolved.ID == StyleCustom || strings.TrimSpace(resolved.Description) == "") {
		return fmt.Errorf("%w: scene style %q needs a custom scene prompt", services.ErrValidation, resolved.ID)
	}
	return nil
}

// BuildPrompt returns customPrompt verbatim when set, otherwise the style's
// description followed by the topic and the standard camera qualifiers.
func (c *Catalog) BuildPrompt(style, topic, customPrompt string) (string, error) {
	if custom := strings.TrimSpace(customPrompt); custom != "" {
		return custom, nil
	}
	resolved, err := c.Lookup(style)
	if err != nil {
		return "", err
	}
	if resolved.ID == StyleCustom || strings.TrimSpace(resolved.Description) == "" {
		return "", fmt.Errorf("%w: scene style %q needs a custom scene prompt", services.ErrValidation, resolved.ID)
	}
	var b strings.Builder
	b.WriteString("A person in ")
	b.WriteString(resolved.Description)
	b.WriteString(".")
	if topic = strings.TrimSpace(topic); topic != "" {
		fmt.Fprintf(&b, " They are talking about %s.", topic)
	}
	b.WriteString(" ")
	b.WriteString(cinematography)
	return b.String(), nil
}
