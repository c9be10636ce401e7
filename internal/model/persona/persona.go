package persona

// Persona names a behavioral style applied as an instruction prefix to every
// model prompt.
type Persona struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Instruction string `json:"-"`
	Description string `json:"description,omitempty"`
}

// DefaultID is the persona every unrecognized identifier resolves to.
const DefaultID = "calm-therapist"

// Seed provides the closed persona set shipped with the product.
func Seed() []Persona {
	return []Persona{
		{
			ID:          "calm-therapist",
			Name:        "Calm Therapist",
			Instruction: "You are a calm, empathetic therapist. Provide supportive and non-judgmental responses.",
			Description: "Grounded, patient, and non-judgmental.",
		},
		{
			ID:          "supportive-friend",
			Name:        "Supportive Friend",
			Instruction: "You are a friendly, caring companion. Respond in a warm, comforting tone.",
			Description: "Warm and comforting, like talking to a close friend.",
		},
		{
			ID:          "motivational-coach",
			Name:        "Motivational Coach",
			Instruction: "You are a motivational coach. Encourage and uplift the user with energetic positivity.",
			Description: "Energetic positivity and encouragement.",
		},
	}
}
