package entities

type ScheduleEmailData struct {
	CustomerName   string
	WorkOrderCode  string
	JobTitle       string
	StartFormatted string
	EndFormatted   string
	CrewSize       int
	CurrentYear    int
}
