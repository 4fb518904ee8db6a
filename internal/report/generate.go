package report

import "github.com/sakif/user-reports/internal/model"

// Generate runs the whole pipeline for one user and returns the artifact URI.
// Nothing is returned unless every step succeeds.
func Generate(user *model.User, activities []model.Activity) (string, error) {
	d, err := Compose(user, activities)
	if err != nil {
		return "", err
	}
	artifact, err := Render(d)
	if err != nil {
		return "", err
	}
	return Encode(artifact)
}
