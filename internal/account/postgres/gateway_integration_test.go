// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

//go:build integration

package postgres_test

import (
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/authms/authms/internal/account"
	"github.com/authms/authms/internal/account/postgres"
	"github.com/authms/authms/internal/persistence"
)

var _ = Describe("AccountGateway against PostgreSQL", func() {
	var (
		conn    *persistence.Connection
		gateway *postgres.AccountGateway
		svc     *account.Service
		issuer  *account.TokenIssuer
	)

	BeforeEach(func() {
		var err error
		conn, err = persistence.NewConnection(persistence.PoolDialer{Pool: pool})
		Expect(err).NotTo(HaveOccurred())

		gateway, err = postgres.NewAccountGateway(conn, account.NewArgon2idHasher(account.WithLegacyPlaintext(true)))
		Expect(err).NotTo(HaveOccurred())

		issuer, err = account.NewTokenIssuer([]byte("0123456789abcdef0123456789abcdef"))
		Expect(err).NotTo(HaveOccurred())

		svc, err = account.NewService(gateway, issuer)
		Expect(err).NotTo(HaveOccurred())

		_, err = svc.DeleteAll(suiteCtx)
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates an account and logs in by username and by email", func() {
		created, err := svc.Create(suiteCtx, account.Credentials{Username: "ada", Email: "ada@example.com", Secret: "s3cret"})
		Expect(err).NotTo(HaveOccurred())
		Expect(created.ID).To(BeNumerically(">", 0))
		Expect(created.CredentialSecret).To(HavePrefix("$argon2id$"))
		Expect(created.CreatedAt).NotTo(BeZero())

		token, err := svc.Login(suiteCtx, account.Credentials{Username: "ada", Secret: "s3cret"}, account.ByUsername)
		Expect(err).NotTo(HaveOccurred())
		claims, err := issuer.Parse(token)
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.AccountID()).To(Equal(created.ID))

		_, err = svc.Login(suiteCtx, account.Credentials{Email: "ada@example.com", Secret: "s3cret"}, account.ByEmail)
		Expect(err).NotTo(HaveOccurred())

		_, err = svc.Login(suiteCtx, account.Credentials{Username: "ada", Secret: "wrong"}, account.ByUsername)
		Expect(errors.Is(err, account.ErrInvalidCredentials)).To(BeTrue())
	})

	It("rejects duplicate emails and usernames", func() {
		_, err := svc.Create(suiteCtx, account.Credentials{Username: "ada", Email: "ada@example.com", Secret: "s"})
		Expect(err).NotTo(HaveOccurred())

		_, err = svc.Create(suiteCtx, account.Credentials{Username: "other", Email: "ada@example.com", Secret: "s"})
		Expect(errors.Is(err, account.ErrDuplicateEmail)).To(BeTrue())

		_, err = svc.Create(suiteCtx, account.Credentials{Username: "ada", Email: "other@example.com", Secret: "s"})
		Expect(errors.Is(err, account.ErrDuplicateUsername)).To(BeTrue())
	})

	It("maps a unique violation from a concurrent insert to a duplicate error", func() {
		var wg sync.WaitGroup
		errs := make([]error, 4)
		for i := range errs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = gateway.Insert(suiteCtx, account.NewAccount("race", "race@example.com", "s"))
			}()
		}
		wg.Wait()

		var ok, dup int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, account.ErrDuplicate):
				dup++
			}
		}
		Expect(ok).To(Equal(1))
		Expect(dup).To(Equal(len(errs) - 1))
	})

	It("upgrades a legacy plaintext secret on login", func() {
		_, err := conn.Insert(suiteCtx, "account", persistence.Params{
			"username":          "legacy",
			"email":             "legacy@example.com",
			"credential_secret": "plain",
			"correlation_id":    account.NewAccount("", "", "").CorrelationID,
		})
		Expect(err).NotTo(HaveOccurred())

		acct, err := gateway.GetByUsernameAndSecret(suiteCtx, "legacy", "plain")
		Expect(err).NotTo(HaveOccurred())
		Expect(acct).NotTo(BeNil())

		stored, err := gateway.GetByID(suiteCtx, acct.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.CredentialSecret).To(HavePrefix("$argon2id$"))
	})

	It("treats a plaintext secret as invalid credentials when legacy mode is off", func() {
		_, err := conn.Insert(suiteCtx, "account", persistence.Params{
			"username":          "legacy",
			"email":             "legacy@example.com",
			"credential_secret": "plain",
			"correlation_id":    account.NewAccount("", "", "").CorrelationID,
		})
		Expect(err).NotTo(HaveOccurred())

		strict, err := postgres.NewAccountGateway(conn, account.NewArgon2idHasher())
		Expect(err).NotTo(HaveOccurred())
		strictSvc, err := account.NewService(strict, issuer)
		Expect(err).NotTo(HaveOccurred())

		_, err = strictSvc.Login(suiteCtx, account.Credentials{Username: "legacy", Secret: "plain"}, account.ByUsername)
		Expect(errors.Is(err, account.ErrInvalidCredentials)).To(BeTrue())
	})

	It("lists, fetches and deletes accounts", func() {
		a, err := svc.Create(suiteCtx, account.Credentials{Username: "ada", Email: "ada@example.com", Secret: "s"})
		Expect(err).NotTo(HaveOccurred())
		_, err = svc.Create(suiteCtx, account.Credentials{Username: "grace", Email: "grace@example.com", Secret: "s"})
		Expect(err).NotTo(HaveOccurred())

		all, err := svc.GetAll(suiteCtx)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(2))

		got, err := svc.GetByID(suiteCtx, a.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Username).To(Equal("ada"))
		Expect(got.CorrelationID).To(Equal(a.CorrelationID))

		missing, err := svc.GetByID(suiteCtx, a.ID+1000)
		Expect(err).NotTo(HaveOccurred())
		Expect(missing).To(BeNil())

		n, err := svc.DeleteAll(suiteCtx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(2)))
	})

	It("joins accounts to themselves through the raw capability", func() {
		_, err := svc.Create(suiteCtx, account.Credentials{Username: "ada", Email: "ada@example.com", Secret: "s"})
		Expect(err).NotTo(HaveOccurred())

		type pair struct {
			left  account.Account
			right *account.Account
		}
		rows, err := persistence.Join2(suiteCtx, conn.Raw(),
			`SELECT a.*, b.* FROM account a LEFT JOIN account b ON b.id_account = a.id_account + 1000`,
			nil, "id_account",
			func(l account.Account, r *account.Account) pair { return pair{l, r} })
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].left.Username).To(Equal("ada"))
		Expect(rows[0].right).To(BeNil())
	})
})
