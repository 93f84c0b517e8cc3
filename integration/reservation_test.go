package integration

import (
	"fmt"
	"sync"

	"github.com/gfourspa/fit-clase-api/internal/apperr"
	"github.com/gfourspa/fit-clase-api/internal/auth"
	"github.com/gfourspa/fit-clase-api/internal/class"
	"github.com/gfourspa/fit-clase-api/internal/reservation"
	"github.com/gfourspa/fit-clase-api/internal/user"

	"github.com/google/uuid"
)

func (s *Suite) TestConcurrentBookingsRespectCapacity() {
	t := s.newTenant("north")
	c := s.newClass(t, tomorrow(), "18:00", "19:00", 3)

	const students = 12
	principals := make([]*auth.Principal, students)
	for i := range principals {
		principals[i] = s.newMember(fmt.Sprintf("north-student-%d", i), auth.RoleStudent, t.gym.ID)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		rejected int
		other    []error
	)
	start := make(chan struct{})
	for _, p := range principals {
		wg.Add(1)
		go func(p *auth.Principal) {
			defer wg.Done()
			<-start
			_, err := s.reservations.Create(s.ctx, p, c.ID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case apperr.Is(err, apperr.KindBadRequest), apperr.Is(err, apperr.KindConflict):
				rejected++
			default:
				other = append(other, err)
			}
		}(p)
	}
	close(start)
	wg.Wait()

	s.Empty(other)
	s.Equal(3, created)
	s.Equal(students-3, rejected)

	var active int
	s.Require().NoError(s.db.Get(&active,
		`SELECT COUNT(*) FROM reservations WHERE class_id = $1 AND status = 'RESERVED'`, c.ID))
	s.Equal(3, active)

	got, err := s.classes.GetClass(s.ctx, t.admin, c.ID)
	s.Require().NoError(err)
	s.Equal(0, got.SeatsLeft())
}

func (s *Suite) TestConcurrentDuplicateBooking() {
	t := s.newTenant("south")
	c := s.newClass(t, tomorrow(), "07:00", "08:00", 10)
	student := s.newMember("south-student", auth.RoleStudent, t.gym.ID)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.reservations.Create(s.ctx, student, c.ID)
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		s.ErrorIs(err, reservation.ErrAlreadyBooked)
	}
	s.Equal(1, ok)
}

func (s *Suite) TestReservationLifecycle() {
	t := s.newTenant("center")
	c := s.newClass(t, tomorrow(), "20:00", "21:00", 1)
	ana := s.newMember("ana", auth.RoleStudent, t.gym.ID)
	bob := s.newMember("bob", auth.RoleStudent, t.gym.ID)

	r, err := s.reservations.Create(s.ctx, ana, c.ID)
	s.Require().NoError(err)
	s.Equal(reservation.StatusReserved, r.Status)

	_, err = s.reservations.Create(s.ctx, ana, c.ID)
	s.ErrorIs(err, reservation.ErrAlreadyBooked)

	_, err = s.reservations.Create(s.ctx, bob, c.ID)
	s.ErrorIs(err, reservation.ErrClassFull)

	s.ErrorIs(s.classes.DeleteClass(s.ctx, t.admin, c.ID), class.ErrClassHasBookings)

	_, err = s.reservations.Cancel(s.ctx, bob, r.ID)
	s.ErrorIs(err, reservation.ErrNotOwner)

	_, err = s.reservations.Cancel(s.ctx, t.teacher, r.ID)
	s.ErrorIs(err, reservation.ErrTeacherCancel)

	canceled, err := s.reservations.Cancel(s.ctx, ana, r.ID)
	s.Require().NoError(err)
	s.Equal(reservation.StatusCanceled, canceled.Status)

	_, err = s.reservations.Cancel(s.ctx, ana, r.ID)
	s.ErrorIs(err, reservation.ErrNotActive)

	again, err := s.reservations.Create(s.ctx, ana, c.ID)
	s.Require().NoError(err)
	s.NotEqual(r.ID, again.ID)

	_, err = s.reservations.MarkAttendance(s.ctx, t.teacher, c.ID, ana.ID, true)
	s.ErrorIs(err, reservation.ErrClassNotStarted)

	mine, err := s.reservations.ListMine(s.ctx, ana)
	s.Require().NoError(err)
	s.Require().Len(mine, 2)
	s.Equal(again.ID, mine[0].ID)
	s.Equal("Yoga", mine[0].DisciplineName)

	roster, err := s.reservations.ListByClass(s.ctx, t.teacher, c.ID)
	s.Require().NoError(err)
	s.Require().Len(roster, 2)
	s.Equal(r.ID, roster[0].ID)
}

func (s *Suite) TestAttendanceAfterStart() {
	t := s.newTenant("east")
	c := s.newClass(t, yesterday(), "10:00", "11:00", 5)
	ana := s.newMember("east-ana", auth.RoleStudent, t.gym.ID)
	bob := s.newMember("east-bob", auth.RoleStudent, t.gym.ID)

	_, err := s.reservations.Create(s.ctx, ana, c.ID)
	s.ErrorIs(err, reservation.ErrPastClass)

	for _, p := range []*auth.Principal{ana, bob} {
		_, err := s.db.Exec(`INSERT INTO reservations (class_id, student_id) VALUES ($1, $2)`, c.ID, p.ID)
		s.Require().NoError(err)
	}

	attended, err := s.reservations.MarkAttendance(s.ctx, t.teacher, c.ID, ana.ID, true)
	s.Require().NoError(err)
	s.Equal(reservation.StatusAttended, attended.Status)

	missed, err := s.reservations.MarkAttendance(s.ctx, t.admin, c.ID, bob.ID, false)
	s.Require().NoError(err)
	s.Equal(reservation.StatusMissed, missed.Status)

	_, err = s.reservations.MarkAttendance(s.ctx, t.teacher, c.ID, ana.ID, false)
	s.ErrorIs(err, reservation.ErrNoActiveReservation)

	_, err = s.reservations.MarkAttendance(s.ctx, t.teacher, c.ID, uuid.New(), true)
	s.ErrorIs(err, reservation.ErrNoActiveReservation)

	_, err = s.reservations.Cancel(s.ctx, t.admin, attended.ID)
	s.ErrorIs(err, reservation.ErrNotActive)
}

func (s *Suite) TestTenantIsolation() {
	a := s.newTenant("alpha")
	b := s.newTenant("beta")
	classA := s.newClass(a, tomorrow(), "09:00", "10:00", 5)
	s.newClass(b, tomorrow(), "09:00", "10:00", 5)
	studentB := s.newMember("beta-student", auth.RoleStudent, b.gym.ID)

	_, err := s.reservations.Create(s.ctx, studentB, classA.ID)
	s.ErrorIs(err, reservation.ErrCrossTenant)

	_, err = s.classes.GetClass(s.ctx, studentB, classA.ID)
	s.ErrorIs(err, auth.ErrGymReadDenied)

	_, err = s.classes.UpdateClass(s.ctx, b.admin, classA.ID, class.UpdateClassRequest{})
	s.ErrorIs(err, auth.ErrGymManageDenied)

	list, err := s.classes.ListClasses(s.ctx, studentB, class.ListQuery{})
	s.Require().NoError(err)
	s.Equal(1, list.Total)
	for _, c := range list.Classes {
		s.Equal(b.gym.ID, c.GymID)
	}

	all, err := s.classes.ListClasses(s.ctx, s.root, class.ListQuery{})
	s.Require().NoError(err)
	s.Equal(2, all.Total)

	_, err = s.classes.ListClasses(s.ctx, studentB, class.ListQuery{GymID: a.gym.ID.String()})
	s.ErrorIs(err, auth.ErrGymReadDenied)

	_, err = s.reservations.ListByClass(s.ctx, b.admin, classA.ID)
	s.ErrorIs(err, auth.ErrGymManageDenied)
}

func (s *Suite) TestMovedMembersLoseAccessToOldGym() {
	a := s.newTenant("east")
	b := s.newTenant("west")
	classB := s.newClass(b, tomorrow(), "12:00", "13:00", 5)
	student := s.newMember("wanderer", auth.RoleStudent, b.gym.ID)

	booked, err := s.reservations.Create(s.ctx, student, classB.ID)
	s.Require().NoError(err)

	moved, err := s.users.AssignRole(s.ctx, s.root, student.ID, user.AssignRoleRequest{Role: auth.RoleStudent, GymID: &a.gym.ID})
	s.Require().NoError(err)
	student = moved.Principal()

	_, err = s.reservations.Cancel(s.ctx, student, booked.ID)
	s.ErrorIs(err, reservation.ErrCrossTenant)

	mine, err := s.reservations.ListMine(s.ctx, student)
	s.Require().NoError(err)
	s.Empty(mine)

	tenantless := &auth.Principal{ID: student.ID, Role: auth.RoleStudent}
	_, err = s.reservations.Cancel(s.ctx, tenantless, booked.ID)
	s.ErrorIs(err, auth.ErrNoTenant)
	_, err = s.reservations.ListMine(s.ctx, tenantless)
	s.ErrorIs(err, auth.ErrNoTenant)

	teacher, err := s.users.AssignRole(s.ctx, s.root, b.teacher.ID, user.AssignRoleRequest{Role: auth.RoleTeacher, GymID: &a.gym.ID})
	s.Require().NoError(err)
	_, err = s.reservations.ListByClass(s.ctx, teacher.Principal(), classB.ID)
	s.ErrorIs(err, reservation.ErrRosterDenied)

	var status string
	s.Require().NoError(s.db.Get(&status, `SELECT status FROM reservations WHERE id = $1`, booked.ID))
	s.Equal("RESERVED", status)
}
