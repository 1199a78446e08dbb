package command

// StartMonitoring starts a countdown monitoring run with the current settings.
type StartMonitoring struct{}

func (c *StartMonitoring) CommandName() string {
	return "StartMonitoring"
}

// StopMonitoring stops the active run. It is a no-op when nothing is running.
type StopMonitoring struct{}

func (c *StopMonitoring) CommandName() string {
	return "StopMonitoring"
}
