package cli

import (
	behaviorCommands "github.com/studora/studora/internal/behavior/application/commands"
	behaviorQueries "github.com/studora/studora/internal/behavior/application/queries"
	planningCommands "github.com/studora/studora/internal/planning/application/commands"
	planningQueries "github.com/studora/studora/internal/planning/application/queries"
	rosterCommands "github.com/studora/studora/internal/roster/application/commands"
	rosterQueries "github.com/studora/studora/internal/roster/application/queries"
	"github.com/google/uuid"
)

// App holds the CLI application dependencies.
type App struct {
	// Planning Command Handlers
	CreateFixedObligationHandler    *planningCommands.CreateFixedObligationHandler
	UpdateFixedObligationHandler    *planningCommands.UpdateFixedObligationHandler
	DeleteFixedObligationHandler    *planningCommands.DeleteFixedObligationHandler
	CreateFlexibleObligationHandler *planningCommands.CreateFlexibleObligationHandler
	UpdateFlexibleObligationHandler *planningCommands.UpdateFlexibleObligationHandler
	DeleteFlexibleObligationHandler *planningCommands.DeleteFlexibleObligationHandler
	CreateAcademicTaskHandler       *planningCommands.CreateAcademicTaskHandler
	CompleteAcademicTaskHandler     *planningCommands.CompleteAcademicTaskHandler
	MarkTasksOverdueHandler         *planningCommands.MarkTasksOverdueHandler
	RescheduleHandler               *planningCommands.RescheduleHandler

	// Planning Query Handlers
	ListObligationsHandler *planningQueries.ListObligationsHandler
	UpcomingEventsHandler  *planningQueries.UpcomingEventsHandler

	// Behavior Command Handlers
	StartSessionHandler        *behaviorCommands.StartSessionHandler
	FinalizeSessionHandler     *behaviorCommands.FinalizeSessionHandler
	RecordContextSignalHandler *behaviorCommands.RecordContextSignalHandler
	UpdateProfileHandler       *behaviorCommands.UpdateProfileHandler
	ColdStartProfileHandler    *behaviorCommands.ColdStartProfileHandler

	// Behavior Query Handlers
	GetProfileHandler         *behaviorQueries.GetProfileHandler
	PredictPerformanceHandler *behaviorQueries.PredictPerformanceHandler
	RecommendSlotsHandler     *behaviorQueries.RecommendSlotsHandler

	// Roster Command Handlers
	CreateStudentHandler    *rosterCommands.CreateStudentHandler
	SyncCoursesHandler      *rosterCommands.SyncCoursesHandler
	RegisterCourseHandler   *rosterCommands.RegisterCourseHandler
	UnregisterCourseHandler *rosterCommands.UnregisterCourseHandler

	// Roster Query Handlers
	ListCoursesHandler       *rosterQueries.ListCoursesHandler
	RegisteredCoursesHandler *rosterQueries.RegisteredCoursesHandler

	// Current student (configured per environment)
	CurrentStudentID uuid.UUID
}

// NewApp creates a new CLI application with the provided handlers.
func NewApp(
	createFixedObligationHandler *planningCommands.CreateFixedObligationHandler,
	updateFixedObligationHandler *planningCommands.UpdateFixedObligationHandler,
	deleteFixedObligationHandler *planningCommands.DeleteFixedObligationHandler,
	createFlexibleObligationHandler *planningCommands.CreateFlexibleObligationHandler,
	updateFlexibleObligationHandler *planningCommands.UpdateFlexibleObligationHandler,
	deleteFlexibleObligationHandler *planningCommands.DeleteFlexibleObligationHandler,
	createAcademicTaskHandler *planningCommands.CreateAcademicTaskHandler,
	completeAcademicTaskHandler *planningCommands.CompleteAcademicTaskHandler,
	markTasksOverdueHandler *planningCommands.MarkTasksOverdueHandler,
	rescheduleHandler *planningCommands.RescheduleHandler,
	listObligationsHandler *planningQueries.ListObligationsHandler,
	upcomingEventsHandler *planningQueries.UpcomingEventsHandler,
	startSessionHandler *behaviorCommands.StartSessionHandler,
	finalizeSessionHandler *behaviorCommands.FinalizeSessionHandler,
	recordContextSignalHandler *behaviorCommands.RecordContextSignalHandler,
	updateProfileHandler *behaviorCommands.UpdateProfileHandler,
	coldStartProfileHandler *behaviorCommands.ColdStartProfileHandler,
	getProfileHandler *behaviorQueries.GetProfileHandler,
	predictPerformanceHandler *behaviorQueries.PredictPerformanceHandler,
	recommendSlotsHandler *behaviorQueries.RecommendSlotsHandler,
	createStudentHandler *rosterCommands.CreateStudentHandler,
	syncCoursesHandler *rosterCommands.SyncCoursesHandler,
	registerCourseHandler *rosterCommands.RegisterCourseHandler,
	unregisterCourseHandler *rosterCommands.UnregisterCourseHandler,
	listCoursesHandler *rosterQueries.ListCoursesHandler,
	registeredCoursesHandler *rosterQueries.RegisteredCoursesHandler,
) *App {
	return &App{
		CreateFixedObligationHandler:    createFixedObligationHandler,
		UpdateFixedObligationHandler:    updateFixedObligationHandler,
		DeleteFixedObligationHandler:    deleteFixedObligationHandler,
		CreateFlexibleObligationHandler: createFlexibleObligationHandler,
		UpdateFlexibleObligationHandler: updateFlexibleObligationHandler,
		DeleteFlexibleObligationHandler: deleteFlexibleObligationHandler,
		CreateAcademicTaskHandler:       createAcademicTaskHandler,
		CompleteAcademicTaskHandler:     completeAcademicTaskHandler,
		MarkTasksOverdueHandler:         markTasksOverdueHandler,
		RescheduleHandler:               rescheduleHandler,
		ListObligationsHandler:          listObligationsHandler,
		UpcomingEventsHandler:           upcomingEventsHandler,
		StartSessionHandler:             startSessionHandler,
		FinalizeSessionHandler:          finalizeSessionHandler,
		RecordContextSignalHandler:      recordContextSignalHandler,
		UpdateProfileHandler:            updateProfileHandler,
		ColdStartProfileHandler:         coldStartProfileHandler,
		GetProfileHandler:               getProfileHandler,
		PredictPerformanceHandler:       predictPerformanceHandler,
		RecommendSlotsHandler:           recommendSlotsHandler,
		CreateStudentHandler:            createStudentHandler,
		SyncCoursesHandler:              syncCoursesHandler,
		RegisterCourseHandler:           registerCourseHandler,
		UnregisterCourseHandler:         unregisterCourseHandler,
		ListCoursesHandler:              listCoursesHandler,
		RegisteredCoursesHandler:        registeredCoursesHandler,
	}
}

// SetCurrentStudentID updates the current student ID.
func (a *App) SetCurrentStudentID(id uuid.UUID) {
	a.CurrentStudentID = id
}

// Global app instance for CLI commands.
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
