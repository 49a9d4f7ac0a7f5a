package til

import (
	"net/url"
	"strconv"

	"github.com/kbukum/resourcekit/resource"
)

// DefaultBaseURL is where a locally running TIL server listens.
const DefaultBaseURL = "http://localhost:8080"

// API builds resources for a TIL server.
type API struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// New returns an API rooted at baseURL, or DefaultBaseURL when empty.
func New(baseURL string) API {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return API{BaseURL: baseURL}
}

// Acronyms lists all acronyms.
func (a API) Acronyms() (*resource.Resource[[]Acronym], error) {
	return resource.NewGet[[]Acronym](a.endpoint("acronyms"))
}

// Acronym fetches one acronym by id.
func (a API) Acronym(id int) (*resource.Resource[Acronym], error) {
	return resource.NewGet[Acronym](a.endpoint("acronyms", strconv.Itoa(id)))
}

// SearchAcronyms finds acronyms whose short or long form matches term.
func (a API) SearchAcronyms(term string) (*resource.Resource[[]Acronym], error) {
	return resource.New[[]Acronym](
		a.endpoint("acronyms", "search"),
		resource.Get(map[string]string{"term": term}),
	)
}

// CreateAcronym creates an acronym and returns the stored entry.
func (a API) CreateAcronym(in CreateAcronym) (*resource.Resource[Acronym], error) {
	return resource.New[Acronym](a.endpoint("acronyms"), resource.Post(in))
}

// People lists all people.
func (a API) People() (*resource.Resource[[]Person], error) {
	return resource.NewGet[[]Person](a.endpoint("users"))
}

// Person fetches one person by id.
func (a API) Person(id int) (*resource.Resource[Person], error) {
	return resource.NewGet[Person](a.endpoint("users", strconv.Itoa(id)))
}

// CreatePerson creates a person and returns the stored entry.
func (a API) CreatePerson(in CreatePerson) (*resource.Resource[Person], error) {
	return resource.New[Person](a.endpoint("users"), resource.Post(in))
}

// endpoint joins path segments onto the base URL. A malformed base URL is
// passed through unchanged so resource construction reports it.
func (a API) endpoint(segments ...string) string {
	u, err := url.JoinPath(a.BaseURL, segments...)
	if err != nil {
		return a.BaseURL
	}
	return u
}
