package models

// DetectionResult is the normalized output of the violation detector. The zero
// value means no signal.
type DetectionResult struct {
	Labels     []string `json:"labels"`
	Confidence float64  `json:"confidence"`
	AutoVerify bool     `json:"auto_verify"`
}

type PlateResult struct {
	Plate       string `json:"plate"`
	VehicleType string `json:"vehicle_type"`
	IsValid     bool   `json:"is_valid"`
	Message     string `json:"message"`
}

// Invalid reports whether the OCR provider rejected the plate.
func (p *PlateResult) Invalid() bool {
	return p != nil && (!p.IsValid || p.Plate == "")
}

type DetectionRequest struct {
	MediaURL string `json:"mediaUrl"`
}

type DetectionResponse struct {
	DetectedViolations []string `json:"detectedViolations"`
	Confidence         *float64 `json:"confidence"`
	ShouldAutoVerify   bool     `json:"shouldAutoVerify"`
	Message            string   `json:"message"`
}

type PlateRequest struct {
	ImageURL string `json:"imageUrl"`
}

type PlateResponse struct {
	Plate       *string `json:"plate"`
	VehicleType *string `json:"vehicleType"`
	IsValid     bool    `json:"isValid"`
	Message     string  `json:"message"`
}
