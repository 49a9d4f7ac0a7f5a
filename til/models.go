package til

// Acronym is an acronym entry as served by the TIL API.
type Acronym struct {
	ID    int    `json:"id" yaml:"id"`
	Short string `json:"short" yaml:"short" validate:"required"`
	Long  string `json:"long" yaml:"long" validate:"required"`
}

// Person is a user of the TIL API.
type Person struct {
	ID       int    `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name" validate:"required"`
	Username string `json:"username" yaml:"username" validate:"required"`
}

// CreateAcronym is the body of an acronym creation request.
type CreateAcronym struct {
	Short string `json:"short"`
	Long  string `json:"long"`
}

// CreatePerson is the body of a person creation request.
type CreatePerson struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}
