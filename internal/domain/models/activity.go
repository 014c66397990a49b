package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TargetScope tells whether an activity applies to one plant or to every
// plant sharing a category or group.
type TargetScope string

const (
	ScopeVariety  TargetScope = "variety"
	ScopeCategory TargetScope = "category"
	ScopeGroup    TargetScope = "group"
)

// ActivityType enumerates the garden actions a user can log.
type ActivityType string

const (
	ActivityFertilize   ActivityType = "pupuk"
	ActivityFungicide   ActivityType = "fungisida"
	ActivityInsecticide ActivityType = "insektisida"
	ActivityMonitor     ActivityType = "monitor"
	ActivityNewComer    ActivityType = "new_comer"
	ActivityPrune       ActivityType = "pangkas"
	ActivitySeed        ActivityType = "semai"
	ActivityPestNote    ActivityType = "hama_penyakit"
	ActivityHarvest     ActivityType = "panen_lainnya"
	ActivityOffshoot    ActivityType = "pisah_anakan"
	ActivityRepot       ActivityType = "pindah_pot"
	ActivityOther       ActivityType = "lainnya"
)

// ActivityTypes lists every activity type in display order.
var ActivityTypes = []ActivityType{
	ActivityFertilize, ActivityFungicide, ActivityInsecticide, ActivityMonitor,
	ActivityNewComer, ActivityPrune, ActivitySeed, ActivityPestNote,
	ActivityHarvest, ActivityOffshoot, ActivityRepot, ActivityOther,
}

// IsTreatment reports whether the type carries product, dose, volume and
// method fields.
func (t ActivityType) IsTreatment() bool {
	switch t {
	case ActivityFertilize, ActivityFungicide, ActivityInsecticide:
		return true
	default:
		return false
	}
}

// WeatherCondition is the weather at the time of the activity.
type WeatherCondition string

const (
	WeatherSunny    WeatherCondition = "cerah"
	WeatherOvercast WeatherCondition = "mendung"
	WeatherCloudy   WeatherCondition = "berawan"
	WeatherDrizzle  WeatherCondition = "hujan_gerimis"
	WeatherDownpour WeatherCondition = "hujan_deras"
)

// ApplicationMethod is how a treatment was applied.
type ApplicationMethod string

const (
	MethodSpray     ApplicationMethod = "spray"
	MethodDrench    ApplicationMethod = "kocor"
	MethodBroadcast ApplicationMethod = "tabur"
	MethodPlant     ApplicationMethod = "tanam"
	MethodOther     ApplicationMethod = "lainnya"
)

// Form defaults for a fresh activity.
const (
	DefaultScope    = ScopeVariety
	DefaultActivity = ActivityFertilize
	DefaultMethod   = MethodSpray
	DefaultWeather  = WeatherSunny
)

// LogicalDateLayout is the calendar-date format of an activity's logical date.
const LogicalDateLayout = "2006-01-02"

var (
	ErrUnknownScope     = errors.New("unknown target scope")
	ErrUnknownType      = errors.New("unknown activity type")
	ErrUnknownWeather   = errors.New("unknown weather condition")
	ErrUnknownMethod    = errors.New("unknown application method")
	ErrMissingPlantID   = errors.New("plant id is required for variety scope")
	ErrMissingTarget    = errors.New("target value is required for bulk scope")
	ErrTreatmentLeakage = errors.New("treatment fields set on non-treatment activity")
)

// ParseTargetScope converts raw input into a TargetScope.
func ParseTargetScope(raw string) (TargetScope, error) {
	switch s := TargetScope(strings.ToLower(strings.TrimSpace(raw))); s {
	case ScopeVariety, ScopeCategory, ScopeGroup:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownScope, raw)
	}
}

// ParseActivityType converts raw input into an ActivityType.
func ParseActivityType(raw string) (ActivityType, error) {
	t := ActivityType(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range ActivityTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, raw)
}

// ParseWeatherCondition converts raw input into a WeatherCondition.
func ParseWeatherCondition(raw string) (WeatherCondition, error) {
	switch w := WeatherCondition(strings.ToLower(strings.TrimSpace(raw))); w {
	case WeatherSunny, WeatherOvercast, WeatherCloudy, WeatherDrizzle, WeatherDownpour:
		return w, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownWeather, raw)
	}
}

// ParseApplicationMethod converts raw input into an ApplicationMethod. The
// empty string is accepted because non-treatment records carry no method.
func ParseApplicationMethod(raw string) (ApplicationMethod, error) {
	switch m := ApplicationMethod(strings.ToLower(strings.TrimSpace(raw))); m {
	case "", MethodSpray, MethodDrench, MethodBroadcast, MethodPlant, MethodOther:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, raw)
	}
}

// Activity is a logged garden action.
type Activity struct {
	ID          string            `bson:"_id,omitempty" json:"id"`
	PlantID     string            `bson:"plantId" json:"plantId"`
	TargetScope TargetScope       `bson:"targetScope" json:"targetScope"`
	TargetValue string            `bson:"targetValue" json:"targetValue"`
	Type        ActivityType      `bson:"type" json:"type"`
	ProductName string            `bson:"productName" json:"productName"`
	Date        time.Time         `bson:"date" json:"date"`
	Description string            `bson:"description" json:"description"`
	Dosis       string            `bson:"dosis" json:"dosis"`
	Volume      string            `bson:"volume" json:"volume"`
	Method      ApplicationMethod `bson:"method" json:"method"`
	Condition   WeatherCondition  `bson:"condition" json:"condition"`
	// PhotoURL mirrors PhotoURLs[0] for readers that predate multi-photo records.
	PhotoURL  string    `bson:"photoUrl" json:"photoUrl"`
	PhotoURLs []string  `bson:"photoUrls" json:"photoUrls"`
	UserID    string    `bson:"userId" json:"userId"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Photos returns the record's photo references, falling back to the legacy
// single-photo field for older records.
func (a Activity) Photos() []string {
	if len(a.PhotoURLs) > 0 {
		return append([]string(nil), a.PhotoURLs...)
	}
	if a.PhotoURL != "" {
		return []string{a.PhotoURL}
	}
	return []string{}
}

// Validate rejects records that would violate the stored-record invariants.
func (a Activity) Validate() error {
	if strings.TrimSpace(a.UserID) == "" {
		return ErrOwnerRequired
	}
	if _, err := ParseTargetScope(string(a.TargetScope)); err != nil {
		return err
	}
	if _, err := ParseActivityType(string(a.Type)); err != nil {
		return err
	}
	if _, err := ParseWeatherCondition(string(a.Condition)); err != nil {
		return err
	}
	if _, err := ParseApplicationMethod(string(a.Method)); err != nil {
		return err
	}

	switch a.TargetScope {
	case ScopeVariety:
		if strings.TrimSpace(a.PlantID) == "" {
			return ErrMissingPlantID
		}
	default:
		if strings.TrimSpace(a.TargetValue) == "" {
			return ErrMissingTarget
		}
	}

	if !a.Type.IsTreatment() && (a.ProductName != "" || a.Dosis != "" || a.Volume != "" || a.Method != "") {
		return ErrTreatmentLeakage
	}
	return nil
}
