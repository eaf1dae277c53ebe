package fetch

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// FARS releases begin in 1975. Coordinates only appear from 1999 onward,
// but earlier archives still download and import (every row is skipped
// during detection).
const earliestYear = 1975

// ArchiveURL returns the HTTPS URL for a national FARS CSV release.
func ArchiveURL(year int) (string, error) {
	if err := validateYear(year); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://static.nhtsa.gov/nhtsa/downloads/FARS/%d/National/FARS%dNationalCSV.zip", year, year), nil
}

// MirrorURL returns the FTP mirror URL for a national FARS CSV release.
func MirrorURL(year int) (string, error) {
	if err := validateYear(year); err != nil {
		return "", err
	}
	return fmt.Sprintf("ftp://ftp.nhtsa.dot.gov/fars/%d/National/FARS%dNationalCSV.zip", year, year), nil
}

func validateYear(year int) error {
	if year < earliestYear {
		return eris.Errorf("fetch: no release for year %d (earliest is %d)", year, earliestYear)
	}
	return nil
}
