package student

import "fmt"

// Eligibility decides whether the student may sit an exam, from the aggregates only.
// Reasons list every violated condition in a fixed order: status, college fee, transport fee, last semester dues.
func (s *Student) Eligibility() EligibilityReport {
	reasons := []string{}
	if s.Status != StatusActive {
		reasons = append(reasons, fmt.Sprintf("Student status is %s", s.Status))
	}
	if s.CollegeFeeDue > 0 {
		reasons = append(reasons, fmt.Sprintf("Pending College Fee: %d", s.CollegeFeeDue))
	}
	if s.TransportFeeDue > 0 {
		reasons = append(reasons, fmt.Sprintf("Pending Transport Fee: %d", s.TransportFeeDue))
	}
	if s.LastSemDues > 0 {
		reasons = append(reasons, fmt.Sprintf("Pending Last Semester Dues: %d", s.LastSemDues))
	}

	return EligibilityReport{
		IsEligible: len(reasons) == 0,
		Reasons:    reasons,
		Student: DuesSnapshot{
			USN:             s.USN,
			Name:            s.Name,
			CollegeFeeDue:   s.CollegeFeeDue,
			TransportFeeDue: s.TransportFeeDue,
			LastSemDues:     s.LastSemDues,
		},
	}
}
