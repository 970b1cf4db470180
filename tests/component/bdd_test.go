//go:build component
// +build component

package component

import (
	"context"
	"time"
)

type step struct {
	s *ComponentTestSuite
}

func (s *ComponentTestSuite) gherkin() (func() *step, func() *step, func() *step) {
	st := &step{s: s}
	f := func() *step { return st }
	return f, f, f
}

func (s *ComponentTestSuite) TestUserCreated() {
	_, when, then := s.gherkin()

	when().
		aSignedUserCreatedDeliveryArrives()

	then().
		theResponseIsSuccessful().
		theUserIsStoredWithDerivedName("Jane Doe").
		aWelcomeEmailTaskWillEventuallyBeQueued()
}

func (s *ComponentTestSuite) TestDuplicateUserCreated() {
	given, when, then := s.gherkin()

	given().
		anExistingUser()

	when().
		aSignedUserCreatedDeliveryArrives()

	then().
		theResponseIsSuccessful().
		exactlyOneUserRowExists()
}

func (s *ComponentTestSuite) TestUserUpdated() {
	given, when, then := s.gherkin()

	given().
		anExistingUser()

	when().
		aSignedImageUpdateDeliveryArrives()

	then().
		theResponseIsSuccessful().
		theStoredUserKeepsEmailAndNameButGainsTheImage()
}

func (s *ComponentTestSuite) TestUserUpdatedUnknownUser() {
	_, when, then := s.gherkin()

	when().
		aSignedImageUpdateDeliveryArrives()

	then().
		theResponseIsNotFound()
}

func (s *ComponentTestSuite) TestUserDeleted() {
	given, when, then := s.gherkin()

	given().
		anExistingUser()

	when().
		aSignedUserDeletedDeliveryArrives()

	then().
		theResponseIsSuccessful().
		noUserRowExists()
}

func (s *ComponentTestSuite) TestUserDeletedUnknownUser() {
	_, when, then := s.gherkin()

	when().
		aSignedUserDeletedDeliveryArrives()

	then().
		theResponseIsSuccessful().
		theOutcomeIs("nothing_to_delete")
}

func (s *ComponentTestSuite) TestTamperedDelivery() {
	_, when, then := s.gherkin()

	when().
		aDeliveryWithABrokenSignatureArrives()

	then().
		theResponseIsRejected().
		noUserRowExists()
}

func (st *step) anExistingUser() *step {
	st.s.deliver(st.s.payload("user.created", map[string]any{
		"id": st.s.externalID,
		"email_addresses": []map[string]any{
			{"id": "idn_1", "email_address": st.s.externalID + "@example.com"},
		},
		"first_name": "Jane",
		"last_name":  "Doe",
	}))
	st.s.Require().Equal(200, st.s.lastResponse.StatusCode)
	return st
}

func (st *step) aSignedUserCreatedDeliveryArrives() *step {
	st.s.deliver(st.s.payload("user.created", map[string]any{
		"id": st.s.externalID,
		"email_addresses": []map[string]any{
			{"id": "idn_1", "email_address": st.s.externalID + "@example.com"},
		},
		"first_name": "Jane",
		"last_name":  "Doe",
	}))
	return st
}

func (st *step) aSignedImageUpdateDeliveryArrives() *step {
	st.s.deliver(st.s.payload("user.updated", map[string]any{
		"id":        st.s.externalID,
		"image_url": "https://img.example.com/p.png",
	}))
	return st
}

func (st *step) aSignedUserDeletedDeliveryArrives() *step {
	st.s.deliver(st.s.payload("user.deleted", map[string]any{
		"id": st.s.externalID,
	}))
	return st
}

func (st *step) aDeliveryWithABrokenSignatureArrives() *step {
	body := st.s.payload("user.created", map[string]any{
		"id": st.s.externalID,
		"email_addresses": []map[string]any{
			{"id": "idn_1", "email_address": st.s.externalID + "@example.com"},
		},
	})
	st.s.deliverTampered(body)
	return st
}

func (st *step) theResponseIsSuccessful() *step {
	st.s.Require().Equal(200, st.s.lastResponse.StatusCode)
	st.s.Require().Equal(true, st.s.lastBody["success"])
	return st
}

func (st *step) theResponseIsNotFound() *step {
	st.s.Require().Equal(404, st.s.lastResponse.StatusCode)
	return st
}

func (st *step) theResponseIsRejected() *step {
	st.s.Require().Equal(400, st.s.lastResponse.StatusCode)
	return st
}

func (st *step) theOutcomeIs(outcome string) *step {
	st.s.Require().Equal(outcome, st.s.lastBody["outcome"])
	return st
}

func (st *step) theUserIsStoredWithDerivedName(name string) *step {
	row := new(userRow)
	st.s.Require().NoError(st.s.db.Model(row).Where("external_id = ?", st.s.externalID).Select())
	st.s.Require().Equal(name, row.Name)
	st.s.Require().Equal(st.s.externalID+"@example.com", row.Email)
	st.s.Require().Equal("student", row.Role)
	st.s.Require().Equal("active", row.Status)
	return st
}

func (st *step) exactlyOneUserRowExists() *step {
	count, err := st.s.db.Model((*userRow)(nil)).Where("external_id = ?", st.s.externalID).Count()
	st.s.Require().NoError(err)
	st.s.Require().Equal(1, count)
	return st
}

func (st *step) noUserRowExists() *step {
	count, err := st.s.db.Model((*userRow)(nil)).Where("external_id = ?", st.s.externalID).Count()
	st.s.Require().NoError(err)
	st.s.Require().Zero(count)
	return st
}

func (st *step) theStoredUserKeepsEmailAndNameButGainsTheImage() *step {
	row := new(userRow)
	st.s.Require().NoError(st.s.db.Model(row).Where("external_id = ?", st.s.externalID).Select())
	st.s.Require().Equal("Jane Doe", row.Name)
	st.s.Require().Equal(st.s.externalID+"@example.com", row.Email)
	st.s.Require().Equal("https://img.example.com/p.png", row.ImageURL)
	return st
}

func (st *step) aWelcomeEmailTaskWillEventuallyBeQueued() *step {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	expectedTo := st.s.externalID + "@example.com"
	for {
		select {
		case task := <-st.s.emailTasks:
			if task.To == expectedTo {
				st.s.Require().Equal("Jane Doe", task.Name)
				return st
			}
		case <-ctx.Done():
			st.s.Require().FailNow("no welcome email task observed for " + expectedTo)
			return st
		}
	}
}
