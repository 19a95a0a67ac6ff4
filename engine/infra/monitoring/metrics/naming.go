package metrics

import "strings"

const metricPrefix = "brandloom_"

// MetricName prefixes a metric name with the project namespace unless it
// already carries it.
func MetricName(name string) string {
	if strings.HasPrefix(name, metricPrefix) {
		return name
	}
	return metricPrefix + name
}

// MetricNameWithSubsystem builds "<prefix><subsystem>_<name>", trimming
// stray underscores around the subsystem.
func MetricNameWithSubsystem(subsystem, name string) string {
	if strings.HasPrefix(name, metricPrefix) {
		return name
	}
	sub := strings.Trim(subsystem, "_")
	switch {
	case sub == "":
		return MetricName(name)
	case name == "":
		return metricPrefix + sub
	default:
		return metricPrefix + sub + "_" + name
	}
}
