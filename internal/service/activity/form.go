package activity

import (
	"time"

	"github.com/mamadbah2/kebunku/internal/domain/models"
)

// Form is the editable state of one activity entry.
type Form struct {
	Scope       models.TargetScope       `json:"targetScope"`
	TargetValue string                   `json:"targetValue"`
	PlantID     string                   `json:"plantId"`
	Type        models.ActivityType      `json:"type"`
	ProductName string                   `json:"productName"`
	Dosis       string                   `json:"dosis"`
	Volume      string                   `json:"volume"`
	Method      models.ApplicationMethod `json:"method"`
	Description string                   `json:"description"`
	Condition   models.WeatherCondition  `json:"condition"`
	Date        string                   `json:"date"`
}

// NewForm returns a blank entry dated today.
func NewForm(today time.Time) Form {
	return Form{
		Scope:     models.DefaultScope,
		Type:      models.DefaultActivity,
		Method:    models.DefaultMethod,
		Condition: models.DefaultWeather,
		Date:      today.Format(models.LogicalDateLayout),
	}
}

// FormFromActivity loads a stored record into an editable form.
func FormFromActivity(a models.Activity) Form {
	f := Form{
		Scope:       a.TargetScope,
		TargetValue: a.TargetValue,
		PlantID:     a.PlantID,
		Type:        a.Type,
		ProductName: a.ProductName,
		Dosis:       a.Dosis,
		Volume:      a.Volume,
		Method:      a.Method,
		Description: a.Description,
		Condition:   a.Condition,
		Date:        a.Date.Format(models.LogicalDateLayout),
	}
	if f.Scope == "" {
		f.Scope = models.DefaultScope
	}
	if f.Method == "" {
		f.Method = models.DefaultMethod
	}
	if f.Condition == "" {
		f.Condition = models.DefaultWeather
	}
	return f
}

// TreatmentFieldsVisible reports whether product, dose, volume and method
// apply to the selected type.
func (f Form) TreatmentFieldsVisible() bool {
	return f.Type.IsTreatment()
}
