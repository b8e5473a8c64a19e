package classify

import "testing"

func TestClassify(t *testing.T) {
	names := Names{
		Prod: []string{"prod"},
		Test: []string{"staging", "test"},
		Dev:  []string{"dev"},
	}

	cases := []struct {
		context string
		want    Category
	}{
		{"prod-cluster-1", CategoryProd},
		{"  PROD-cluster-1\n", CategoryProd},
		{"eu-Prod", CategoryProd},
		{"prod-test", CategoryProd},
		{"dev-prod", CategoryProd},
		{"staging-west", CategoryTest},
		{"test-dev", CategoryTest},
		{"DEV", CategoryDev},
		{"minikube", CategoryUnknown},
		{"", CategoryUnknown},
	}

	for _, tc := range cases {
		if got := Classify(tc.context, names); got != tc.want {
			t.Errorf("Classify(%q)=%s want %s", tc.context, got, tc.want)
		}
	}
}

func TestClassify_EmptyListsYieldUnknown(t *testing.T) {
	if got := Classify("prod-cluster-1", Names{}); got != CategoryUnknown {
		t.Fatalf("Classify with no names=%s want unknown", got)
	}
}

func TestClassify_EmptyFragmentNeverMatches(t *testing.T) {
	names := Names{Prod: []string{""}, Dev: []string{"dev"}}
	if got := Classify("dev-1", names); got != CategoryDev {
		t.Fatalf("Classify=%s want dev", got)
	}
	if got := Classify("anything", names); got != CategoryUnknown {
		t.Fatalf("Classify=%s want unknown", got)
	}
}

func TestClassify_ProdSubstringAnyCaseOrPadding(t *testing.T) {
	names := Names{Prod: []string{"live"}, Test: []string{"live-test"}}
	for _, ctx := range []string{"live", "LIVE", " Live ", "\tus-live-2", "my-live-test"} {
		if got := Classify(ctx, names); got != CategoryProd {
			t.Errorf("Classify(%q)=%s want prod", ctx, got)
		}
	}
}
