package models

// All lists every table the notifier reads or writes, in dependency order.
func All() []interface{} {
	return []interface{}{
		&Salon{},
		&User{},
		&Customer{},
		&Service{},
		&Appointment{},
		&ReminderTemplate{},
		&Routine{},
		&SendRecord{},
		&RoutineSendMark{},
		&ExecutionLog{},
	}
}
