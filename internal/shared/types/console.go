package types

// ConsoleInterface is the output port used by the orchestrator and CLI.
// The engines themselves never log.
type ConsoleInterface interface {
	Print(a ...interface{})
	Printf(format string, a ...interface{})
	Println(a ...interface{})

	LogInfo(format string, a ...interface{})
	LogWarning(format string, a ...interface{})
	LogError(format string, a ...interface{})
	LogSuccess(format string, a ...interface{})

	Status(message string) StatusHandle
	CreateTable() TableInterface
	DisplayDailyCostBars(points []DailyBar)
}

// StatusHandle updates a transient status message.
type StatusHandle interface {
	Update(message string)
	Stop()
}

// TableInterface builds and renders a console table.
type TableInterface interface {
	AddColumn(name string, options ...interface{})
	AddRow(cells ...interface{})
	Render() string
}

// DailyBar is one bar in the daily spend chart; Flagged marks the day as
// anomalous so the console can color it.
type DailyBar struct {
	Label   string
	Amount  float64
	Flagged bool
}
